// Package client talks to the Tarefas+ HTTP surface and keeps the client
// side state of the dashboard and the task detail page.
package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/Davi2004/TarefasPlus/domain"
	"github.com/Davi2004/TarefasPlus/share"
)

var (
	// ErrUnauthenticated is returned when the server rejects the credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotVisible is returned when a task is missing or private.
	ErrNotVisible = errors.New("task not visible")
)

// StatusError carries an unexpected response status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// TaskDetail is the payload of a task detail page.
type TaskDetail struct {
	Item        domain.TaskView  `json:"item"`
	AllComments []domain.Comment `json:"allComments"`
}

// HTTP wraps http.Client with the JSON calls of the service.
type HTTP struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
}

// NewHTTP creates a client. Redirects are never followed so that gate
// redirects surface as errors.
func NewHTTP(baseURL, bearer string) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Bearer:  bearer,
		HTTP: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *HTTP) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		// one key per submission; the server rejects replays with 409
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	req.Header.Set("Accept", "application/json")
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	return req, nil
}

func (c *HTTP) do(ctx context.Context, method, path string, body, out any) (int, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, ErrUnauthenticated
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return resp.StatusCode, domain.ErrEmptyText
	case resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, domain.ErrForbidden
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return resp.StatusCode, nil
	case resp.StatusCode >= 400:
		return resp.StatusCode, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil && len(data) > 0 {
		if err := sonic.Unmarshal(data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type sessionPayload struct {
	Status string           `json:"status"`
	User   *domain.Identity `json:"user"`
}

// Session asks the server who the caller is.
func (c *HTTP) Session(ctx context.Context) (domain.SessionState, error) {
	var p sessionPayload
	if _, err := c.do(ctx, http.MethodGet, "/api/session", nil, &p); err != nil {
		return domain.PendingSession(), err
	}
	if p.Status == domain.SessionSignedIn.String() && p.User != nil {
		return domain.SignedIn(*p.User), nil
	}
	return domain.SignedOut(), nil
}

// CreateTask registers a task and returns its id.
func (c *HTTP) CreateTask(ctx context.Context, text string, public bool) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks", domain.NewTask{Text: text, Public: public}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteTask removes one of the caller's tasks.
func (c *HTTP) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

// TaskDetail loads a public task and its comments. A gate redirect is
// reported as ErrNotVisible.
func (c *HTTP) TaskDetail(ctx context.Context, id string) (TaskDetail, error) {
	var out TaskDetail
	status, err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, &out)
	if err != nil {
		return TaskDetail{}, err
	}
	if status >= 300 && status < 400 {
		return TaskDetail{}, ErrNotVisible
	}
	return out, nil
}

// CreateComment stores a comment and returns it with its id.
func (c *HTTP) CreateComment(ctx context.Context, taskID, text string) (domain.Comment, error) {
	var out domain.Comment
	body := map[string]string{"text": text}
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(taskID)+"/comments", body, &out); err != nil {
		return domain.Comment{}, err
	}
	return out, nil
}

// DeleteComment removes a comment written by the caller.
func (c *HTTP) DeleteComment(ctx context.Context, taskID, commentID string) error {
	path := "/api/tasks/" + url.PathEscape(taskID) + "/comments/" + url.PathEscape(commentID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Share asks the server to compose a share action for a public task.
func (c *HTTP) Share(ctx context.Context, taskID string, s share.Strategy, caps share.Capabilities) (share.Action, error) {
	q := url.Values{}
	q.Set("strategy", s.String())
	if caps.NativeShare {
		q.Set("native", "true")
	}
	var out share.Action
	_, err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(taskID)+"/share?"+q.Encode(), nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return share.Action{}, ErrNotVisible
	}
	if err != nil {
		return share.Action{}, err
	}
	return out, nil
}

// Stream is an open server-sent event stream of task list snapshots.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// StreamTasks opens the live task list of the caller.
func (c *HTTP) StreamTasks(ctx context.Context) (*Stream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/dashboard/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode >= 300 && resp.StatusCode < 400 || resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		return nil, &StatusError{Status: resp.StatusCode}
	}
	return &Stream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

// Next blocks until the next snapshot arrives.
func (s *Stream) Next() ([]domain.Task, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		tasks := []domain.Task{}
		if err := sonic.Unmarshal([]byte(data), &tasks); err != nil {
			return nil, err
		}
		return tasks, nil
	}
}

// Close releases the stream.
func (s *Stream) Close() error {
	return s.body.Close()
}
