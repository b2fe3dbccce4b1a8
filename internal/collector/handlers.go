package collector

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeRunNotFound    = "RUN_NOT_FOUND"
	CodeRunCompleted   = "RUN_COMPLETED"
	CodeSeqConflict    = "SEQ_CONFLICT"
	CodeInvalidStage   = "INVALID_STAGE"
	CodeInternal       = "INTERNAL"
)

// Handlers serves the run-logging API over a store.
type Handlers struct {
	store  *store.Store
	ids    engine.RunIDGenerator
	now    func() time.Time
	logger *slog.Logger

	// updateMu serializes seq assignment for requests without a seq.
	updateMu sync.Mutex
}

// Option configures Handlers.
type Option func(*Handlers)

// WithRunIDs sets the run id generator.
func WithRunIDs(g engine.RunIDGenerator) Option {
	return func(h *Handlers) { h.ids = g }
}

// WithNow sets the clock used for creation and completion times.
func WithNow(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handlers) { h.logger = l }
}

// NewHandlers creates handlers over s.
func NewHandlers(s *store.Store, opts ...Option) *Handlers {
	h := &Handlers{
		store:  s,
		ids:    engine.UUIDv7Generator{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UpdateRunResponse acknowledges a stored transition.
type UpdateRunResponse struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`
}

// CompleteResponse acknowledges a completion.
type CompleteResponse struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// RunResponse is one run with its transition log.
type RunResponse struct {
	Run         ir.Run          `json:"run"`
	Transitions []ir.Transition `json:"transitions"`
}

// RunsResponse lists runs.
type RunsResponse struct {
	Runs []ir.Run `json:"runs"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func abort(c *gin.Context, status int, code, message string) {
	c.JSON(status, ir.ErrorResponse{Code: code, Message: message})
}

// HandleCreateRun handles POST /createRun.
func (h *Handlers) HandleCreateRun(c *gin.Context) {
	var req ir.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	run := ir.Run{
		ID:        h.ids.Generate(),
		UserID:    req.ID,
		MachineID: req.MachineID,
		CreatedAt: h.now().UnixMilli(),
	}
	if err := h.store.WriteRun(c.Request.Context(), run); err != nil {
		h.logger.Error("create run failed", "user_id", req.ID, "error", err)
		abort(c, http.StatusInternalServerError, CodeInternal, "could not create run")
		return
	}

	h.logger.Info("run created", "run_id", run.ID, "user_id", run.UserID, "machine_id", run.MachineID)
	c.JSON(http.StatusOK, ir.CreateRunResponse{ID: run.ID})
}

// HandleUpdateRun handles POST /updateRun.
//
// A request without seq gets the run's next seq; a request without stage
// inherits the stage of the run's last transition.
func (h *Handlers) HandleUpdateRun(c *gin.Context) {
	var req ir.UpdateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if _, ok := ir.ParseActionKind(string(req.Type)); !ok {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, "unknown action type "+strconv.Quote(string(req.Type)))
		return
	}

	ctx := c.Request.Context()
	h.updateMu.Lock()
	defer h.updateMu.Unlock()

	state, err := h.store.GetRunState(ctx, req.ID)
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, CodeRunNotFound, "no run "+strconv.Quote(req.ID))
		return
	}
	if err != nil {
		h.logger.Error("read run failed", "run_id", req.ID, "error", err)
		abort(c, http.StatusInternalServerError, CodeInternal, "could not read run")
		return
	}
	if state.Run.Completed {
		abort(c, http.StatusConflict, CodeRunCompleted, "run "+strconv.Quote(req.ID)+" is already completed")
		return
	}

	t := req.Transition()
	if t.Seq == 0 {
		t.Seq = state.LastSeq + 1
	}
	if t.Stage == "" {
		t.Stage = state.Stage
		if t.Stage == "" {
			t.Stage = ir.StageHeapify
		}
	}
	if !t.Stage.Valid() {
		abort(c, http.StatusBadRequest, CodeInvalidStage, "unknown stage "+strconv.Quote(string(t.Stage)))
		return
	}

	t.ID, err = ir.TransitionID(t.RunID, t.Seq, t.Stage, t.Action, t.PreState, t.PostState)
	if err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	err = h.store.WriteTransition(ctx, t)
	switch {
	case errors.Is(err, store.ErrSeqConflict):
		abort(c, http.StatusConflict, CodeSeqConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("write transition failed", "run_id", t.RunID, "seq", t.Seq, "error", err)
		abort(c, http.StatusInternalServerError, CodeInternal, "could not store transition")
		return
	}

	h.logger.Debug("transition stored", "run_id", t.RunID, "seq", t.Seq, "action", t.Action)
	c.JSON(http.StatusOK, UpdateRunResponse{ID: t.ID, Seq: t.Seq})
}

// HandleComplete handles GET /complete/:id.
func (h *Handlers) HandleComplete(c *gin.Context) {
	id := c.Param("id")
	err := h.store.CompleteRun(c.Request.Context(), id, h.now().UnixMilli())
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, CodeRunNotFound, "no run "+strconv.Quote(id))
		return
	}
	if err != nil {
		h.logger.Error("complete run failed", "run_id", id, "error", err)
		abort(c, http.StatusInternalServerError, CodeInternal, "could not complete run")
		return
	}

	h.logger.Info("run completed", "run_id", id)
	c.JSON(http.StatusOK, CompleteResponse{ID: id, Completed: true})
}

// HandleGetRun handles GET /runs/:id.
func (h *Handlers) HandleGetRun(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	run, err := h.store.ReadRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, CodeRunNotFound, "no run "+strconv.Quote(id))
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, CodeInternal, "could not read run")
		return
	}
	trs, err := h.store.ReadTransitions(ctx, id)
	if err != nil {
		abort(c, http.StatusInternalServerError, CodeInternal, "could not read transitions")
		return
	}
	c.JSON(http.StatusOK, RunResponse{Run: run, Transitions: trs})
}

// HandleListRuns handles GET /runs?limit=N.
func (h *Handlers) HandleListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, CodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, CodeInternal, "could not list runs")
		return
	}
	c.JSON(http.StatusOK, RunsResponse{Runs: runs})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: ir.Version})
}
