package ir

// Transition is one recorded state change of an experiment run.
//
// ID is content-addressed (see TransitionID). Seq comes from the run's
// logical clock. Timestamp is wall-clock milliseconds, kept for the
// run-logging wire format and excluded from the id.
type Transition struct {
	ID        string     `json:"id"`
	RunID     string     `json:"run_id"`
	Seq       int64      `json:"seq"`
	Stage     StageName  `json:"stage"`
	Action    ActionKind `json:"type"`
	Timestamp int64      `json:"timestamp"`
	PreState  Object     `json:"preState"`
	PostState Object     `json:"postState"`
}

// Run describes one experiment session.
type Run struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	MachineID   string `json:"machine_id"`
	CreatedAt   int64  `json:"created_at"`
	Completed   bool   `json:"completed"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

// Completion is emitted once per stage. For the heapify stage HeapData is
// the heap handed to the sort stage; for the sort stage Completed is true.
type Completion struct {
	RunID     string    `json:"run_id"`
	Stage     StageName `json:"stage"`
	HeapData  []int     `json:"heapData"`
	Completed bool      `json:"completed"`
}
