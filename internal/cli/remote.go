package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/teamdraw/internal/domain/types"
	"github.com/okian/teamdraw/pkg/logger"
)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

// client talks to the team draw HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends body as JSON (when not nil) and decodes a 2xx answer into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%w: %s %s: %d %s: %s", ErrRemote, method, path, resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: %s %s: %d %s", ErrRemote, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *client) checkHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *client) createSession(ctx context.Context) (string, error) {
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &created); err != nil {
		return "", err
	}
	return created.SessionID, nil
}

func (c *client) deleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
}

func (c *client) sort(ctx context.Context, id string, req types.SortRequest) (types.SortResponse, error) {
	var resp types.SortResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/sort", req, &resp)
	return resp, err
}

func (c *client) notices(ctx context.Context, id string) ([]types.Notice, error) {
	var resp struct {
		Notices []types.Notice `json:"notices"`
	}
	err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/notices", nil, &resp)
	return resp.Notices, err
}

// drawRemote runs every round on one server session. Notification outcomes
// are decided by the server and reported from its notice list.
func (r *runner) drawRemote(ctx context.Context, raw string) ([]types.SortResponse, error) {
	c := newClient(r.flags.url, r.flags.timeout)
	if err := c.checkHealth(ctx); err != nil {
		return nil, fmt.Errorf("server health check failed: %w", err)
	}
	id, err := c.createSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.deleteSession(context.WithoutCancel(ctx), id); err != nil {
			logger.Get().Warn(ctx, "could not release session", logger.String("session_id", id), logger.Error(err))
		}
	}()

	results := make([]types.SortResponse, 0, r.flags.rounds)
	for range r.flags.rounds {
		resp, err := c.sort(ctx, id, types.SortRequest{Participants: raw, TeamCount: r.flags.teams})
		if err != nil {
			return results, err
		}
		results = append(results, resp)
	}

	notices, err := c.notices(ctx, id)
	if err != nil {
		logger.Get().Warn(ctx, "could not fetch notices", logger.String("session_id", id), logger.Error(err))
		return results, nil
	}
	for _, n := range notices {
		switch n.Kind {
		case "notification_failed", "notification_dropped":
			r.warn(n.Message)
		}
	}
	return results, nil
}
