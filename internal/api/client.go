package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fishnet/internal/logger"
)

// Client is the production ApiStub: a coordinator reached over HTTP.
// Retries on transient failure follow the same shape as the teacher's
// retrying HTTP job — a small fixed number of attempts with a short
// sleep between them — because the queue actor's own backoff policy
// already governs the slow path (repeated empty acquires); Client only
// needs to smooth over a single flaky round trip.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	clientID uuid.UUID
	log      logger.Logger
}

// NewClient builds a Client against baseURL, authenticating with token
// via a bearer header.
func NewClient(baseURL, token string, log logger.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		baseURL:  baseURL,
		token:    token,
		clientID: uuid.New(),
		log:      log.With(logger.Field{Key: "component", Value: "api_client"}),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = *bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Fishnet-Client", c.clientID.String())
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (*http.Response, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if out != nil && resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp, fmt.Errorf("decode response: %w", err)
			}
			return resp, nil
		}
		resp.Body.Close()
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempt(s): %w", attempts, lastErr)
}

// Status asks the coordinator how deep its backlogs are. A transport
// error is returned as-is; the actor treats it the same as "no status
// available" and falls back to its default pacing.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}
	var status Status
	resp, err := c.do(req, &status)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status: unexpected http status %d", resp.StatusCode)
	}
	return &status, nil
}

// Acquire asks the coordinator for the next batch. A transport error is
// returned as-is (the "None" case from the spec); the actor loops
// without escalating backoff for that case specifically.
func (c *Client) Acquire(ctx context.Context, query AcquireQuery) (*Acquired, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/acquire?slow="+strconv.FormatBool(query.Slow), nil)
	if err != nil {
		return nil, err
	}
	var body AcquireResponseBody
	resp, err := c.do(req, &body)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return &Acquired{Kind: AcquiredAccepted, Body: &body}, nil
	case http.StatusNoContent:
		return &Acquired{Kind: AcquiredNoContent}, nil
	case http.StatusBadRequest:
		return &Acquired{Kind: AcquiredBadRequest}, nil
	default:
		return nil, fmt.Errorf("acquire: unexpected http status %d", resp.StatusCode)
	}
}

// SubmitAnalysis posts a batch's results (complete or partial) and does
// not wait for the outcome; a failed submission is merely logged,
// because the coordinator tolerates re-submission and the queue has
// already moved on.
func (c *Client) SubmitAnalysis(ctx context.Context, batchID BatchID, parts []*AnalysisPart) {
	go func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		req, err := c.newRequest(reqCtx, http.MethodPost, "/analysis/"+string(batchID), parts)
		if err != nil {
			c.log.Warn("failed to build submit_analysis request", logger.Field{Key: "batch_id", Value: string(batchID)}, logger.Field{Key: "error", Value: err})
			return
		}
		if _, err := c.do(req, nil); err != nil {
			c.log.Warn("submit_analysis failed", logger.Field{Key: "batch_id", Value: string(batchID)}, logger.Field{Key: "error", Value: err})
		}
	}()
}

// Abort tells the coordinator to cancel a batch. Best-effort: a failure
// here just means the coordinator eventually times the batch out on its
// own.
func (c *Client) Abort(ctx context.Context, batchID BatchID) {
	go func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		req, err := c.newRequest(reqCtx, http.MethodPost, "/abort/"+string(batchID), nil)
		if err != nil {
			c.log.Warn("failed to build abort request", logger.Field{Key: "batch_id", Value: string(batchID)}, logger.Field{Key: "error", Value: err})
			return
		}
		if _, err := c.do(req, nil); err != nil {
			c.log.Warn("abort failed", logger.Field{Key: "batch_id", Value: string(batchID)}, logger.Field{Key: "error", Value: err})
		}
	}()
}

var _ ApiStub = (*Client)(nil)
