package recorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/ir"
)

// fakeService records requests made to the run-logging API.
type fakeService struct {
	mu       sync.Mutex
	updates  []ir.UpdateRunRequest
	creates  []ir.CreateRunRequest
	complete []string
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /createRun", func(w http.ResponseWriter, r *http.Request) {
		var req ir.CreateRunRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.creates = append(f.creates, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ir.CreateRunResponse{ID: "run-42"})
	})
	mux.HandleFunc("POST /updateRun", func(w http.ResponseWriter, r *http.Request) {
		var req ir.UpdateRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.updates = append(f.updates, req)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /complete/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.complete = append(f.complete, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestHTTPSink_CreateRecordComplete(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	sink := NewHTTPSink(srv.URL+"/", 0)
	ctx := context.Background()

	runID, err := sink.CreateRun(ctx, "user-1", "heapSort")
	require.NoError(t, err)
	assert.Equal(t, "run-42", runID)
	require.Len(t, svc.creates, 1)
	assert.Equal(t, ir.CreateRunRequest{ID: "user-1", MachineID: "heapSort"}, svc.creates[0])

	post := ir.HeapifyState{Array: []int{1}, HeapData: []int{1}, Node: ir.Node(0)}
	require.NoError(t, sink.Record(ctx, ir.Transition{
		RunID:     runID,
		Seq:       2,
		Stage:     ir.StageHeapify,
		Action:    ir.ActionAddNode,
		Timestamp: 99,
		PreState:  ir.Object{},
		PostState: post.ToIR(),
	}))
	require.Len(t, svc.updates, 1)
	got := svc.updates[0]
	assert.Equal(t, "run-42", got.ID)
	assert.Equal(t, ir.ActionAddNode, got.Type)
	assert.Equal(t, int64(99), got.Timestamp)
	assert.NotNil(t, got.Payload)
	state, err := ir.HeapifyStateFromIR(got.PostState)
	require.NoError(t, err)
	assert.True(t, post.Equal(state))

	require.NoError(t, sink.Complete(ctx, ir.Completion{RunID: runID, Stage: ir.StageHeapify}))
	assert.Empty(t, svc.complete, "hand-over is not a completion")
	require.NoError(t, sink.Complete(ctx, ir.Completion{RunID: runID, Stage: ir.StageSort, Completed: true}))
	assert.Equal(t, []string{"run-42"}, svc.complete)
}

func TestHTTPSink_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ir.ErrorResponse{Code: "RUN_NOT_FOUND", Message: "no such run"})
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, time.Second).Record(context.Background(), ir.Transition{RunID: "x"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "RUN_NOT_FOUND", httpErr.Code)
	assert.Contains(t, err.Error(), "no such run")
}

func TestHTTPSink_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSink(url, 200*time.Millisecond).CreateRun(context.Background(), "u", "heapSort")
	assert.Error(t, err)
}
