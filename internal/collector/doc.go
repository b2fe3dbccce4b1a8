// Package collector is the run-logging HTTP service.
//
// It accepts the same requests a learner's session sends to a remote
// recorder and stores them in the local SQLite log:
//
//	POST /createRun       {id: userId, machineId} -> {id: runId}
//	POST /updateRun       {id, payload, type, preState, postState, timestamp, seq?, stage?}
//	GET  /complete/:id    mark a run submitted
//	GET  /runs            list runs
//	GET  /runs/:id        one run with its transitions
//	GET  /healthz         liveness
//	GET  /metrics         Prometheus exposition
//
// Errors are returned as {code, message}.
package collector
