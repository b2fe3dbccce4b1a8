package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/heaplab/internal/ir"
)

// DefaultHTTPTimeout bounds each request to the run-logging service.
const DefaultHTTPTimeout = 5 * time.Second

// HTTPSink posts transitions to a run-logging service.
type HTTPSink struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSink creates a sink for the service at baseURL. A zero timeout
// uses DefaultHTTPTimeout.
func NewHTTPSink(baseURL string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateRun asks the service for a new run id.
func (h *HTTPSink) CreateRun(ctx context.Context, userID, machineID string) (string, error) {
	var resp ir.CreateRunResponse
	req := ir.CreateRunRequest{ID: userID, MachineID: machineID}
	if err := h.do(ctx, http.MethodPost, "/createRun", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("createRun: empty run id")
	}
	return resp.ID, nil
}

func (h *HTTPSink) Record(ctx context.Context, t ir.Transition) error {
	return h.do(ctx, http.MethodPost, "/updateRun", ir.UpdateFor(t), nil)
}

// Complete notifies the service on submission.
func (h *HTTPSink) Complete(ctx context.Context, c ir.Completion) error {
	if !c.Completed {
		return nil
	}
	return h.do(ctx, http.MethodGet, "/complete/"+url.PathEscape(c.RunID), nil, nil)
}

func (h *HTTPSink) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr ir.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		return &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// HTTPError is a non-2xx response from the run-logging service.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}
