package ir

// CreateRunRequest is the body of POST /createRun. ID carries the user id.
type CreateRunRequest struct {
	ID        string `json:"id" binding:"required"`
	MachineID string `json:"machineId" binding:"required"`
}

// CreateRunResponse returns the issued run id.
type CreateRunResponse struct {
	ID string `json:"id"`
}

// UpdateRunRequest is the body of POST /updateRun.
//
// Seq and Stage extend the original wire format; a collector receiving a
// request without them assigns the next seq and infers the stage from the
// action.
type UpdateRunRequest struct {
	ID        string     `json:"id" binding:"required"`
	Payload   Object     `json:"payload"`
	Type      ActionKind `json:"type" binding:"required"`
	PreState  Object     `json:"preState"`
	PostState Object     `json:"postState"`
	Timestamp int64      `json:"timestamp"`
	Seq       int64      `json:"seq,omitempty"`
	Stage     StageName  `json:"stage,omitempty"`
}

// ErrorResponse is the body of every non-2xx collector response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpdateFor builds the wire form of t.
func UpdateFor(t Transition) UpdateRunRequest {
	pre := t.PreState
	if pre == nil {
		pre = Object{}
	}
	return UpdateRunRequest{
		ID:        t.RunID,
		Payload:   Object{},
		Type:      t.Action,
		PreState:  pre,
		PostState: t.PostState,
		Timestamp: t.Timestamp,
		Seq:       t.Seq,
		Stage:     t.Stage,
	}
}

// Transition converts the request back into a transition. The id is left
// empty for the store to compute.
func (r UpdateRunRequest) Transition() Transition {
	stage := r.Stage
	if stage == "" {
		stage = r.Type.Stage()
	}
	pre := r.PreState
	if pre == nil {
		pre = Object{}
	}
	post := r.PostState
	if post == nil {
		post = Object{}
	}
	return Transition{
		RunID:     r.ID,
		Seq:       r.Seq,
		Stage:     stage,
		Action:    r.Type,
		Timestamp: r.Timestamp,
		PreState:  pre,
		PostState: post,
	}
}
