// Package recorder delivers experiment transitions to durable and remote
// sinks.
//
// Every sink implements engine.Recorder. Sinks that care about stage
// completion also implement engine.Completer, and sinks that need to know
// about a run before its first transition implement Starter.
//
// Async decouples the session from slow sinks: Record enqueues and returns,
// a single Run loop drains the queue in order. Multi fans one stream out to
// several sinks.
package recorder
