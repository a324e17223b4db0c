package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/config"
	"github.com/Davi2004/TarefasPlus/domain"
	"github.com/Davi2004/TarefasPlus/subscription"
)

const testSecret = "test-secret"

var errBoom = errors.New("boom")

type fakeStore struct {
	mu       sync.Mutex
	tasks    map[string]domain.Task
	comments []domain.Comment
	calls    int
	seq      int
	err      error

	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[string]domain.Task{}}
}

func (f *fakeStore) begin() error {
	f.calls++
	return f.err
}

func (f *fakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) put(t domain.Task) {
	f.mu.Lock()
	f.tasks[t.ID] = t
	f.mu.Unlock()
}

func (f *fakeStore) putComment(c domain.Comment) {
	f.mu.Lock()
	f.comments = append(f.comments, c)
	f.mu.Unlock()
}

func (f *fakeStore) CreateTask(ctx context.Context, owner string, in domain.NewTask) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return "", err
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	id := fmt.Sprintf("task-%d", f.seq)
	f.tasks[id] = domain.Task{ID: id, Text: in.Text, Public: in.Public, Owner: owner, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	if _, ok := f.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (domain.Task, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Task{}, false, err
	}
	t, ok := f.tasks[id]
	return t, ok, nil
}

func (f *fakeStore) TasksByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Comment{}, err
	}
	if f.createErr != nil {
		return domain.Comment{}, f.createErr
	}
	f.seq++
	c.ID = fmt.Sprintf("comment-%d", f.seq)
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeStore) GetComment(ctx context.Context, id string) (domain.Comment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return domain.Comment{}, false, err
	}
	for _, c := range f.comments {
		if c.ID == id {
			return c, true, nil
		}
	}
	return domain.Comment{}, false, nil
}

func (f *fakeStore) DeleteComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) CommentsByTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	var out []domain.Comment
	for _, c := range f.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

var testSessionConfig = config.SessionConfig{
	Name:   "tarefas_test",
	Secret: "0123456789abcdef0123456789abcdef",
	MaxAge: 3600,
}

type testEnv struct {
	e     *echo.Echo
	srv   *Server
	store *fakeStore
	hub   *subscription.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	auth, err := NewAuth(config.AuthConfig{LocalMode: "hs256", LocalSecret: testSecret}, nil)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	logger := log.New()
	hub := subscription.NewHub(nil, "updates", store, logger)
	srv := NewServer(Options{
		Store:     store,
		Auth:      auth,
		Hub:       hub,
		Sessions:  NewSessions(testSessionConfig),
		Renderer:  renderer,
		Logger:    logger,
		Dates:     domain.DefaultDateFormat,
		PublicURL: "https://example.com",
	})
	e := echo.New()
	srv.Register(e)
	return &testEnv{e: e, srv: srv, store: store, hub: hub}
}

func signToken(t *testing.T, id domain.Identity) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "auth0|" + id.Email,
		"email": id.Email,
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
		"iat":   time.Now().Add(-time.Minute).Unix(),
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	if id.Image != "" {
		claims["picture"] = id.Image
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

type reqOpt func(*http.Request)

func as(t *testing.T, id domain.Identity) reqOpt {
	token := signToken(t, id)
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func acceptJSON(r *http.Request) { r.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON) }

func (env *testEnv) do(method, target, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

var (
	ana = domain.Identity{Email: "ana@example.com", Name: "Ana", Image: "https://img/ana.png"}
	bob = domain.Identity{Email: "bob@example.com", Name: "Bob"}
)
