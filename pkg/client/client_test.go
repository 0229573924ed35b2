package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naveenspark/protasker/internal/store"
	"github.com/naveenspark/protasker/internal/testutil"
	"github.com/naveenspark/protasker/pkg/domain"
)

func newTestStore(token string) *store.MemoryStore {
	st := store.NewMemoryStore()
	if token != "" {
		st.Save(store.KeyToken, token)                            //nolint:errcheck
		st.Save(store.KeyUser, `{"id":"1","email":"a@b.com"}`) //nolint:errcheck
	}
	return st
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Email != "a@b.com" || body.Password != "x" {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"user":  map[string]string{"id": "1", "email": "a@b.com"},
			"token": "t1",
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", newTestStore(""))
	resp, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.Token != "t1" {
		t.Errorf("Token = %q, want %q", resp.Token, "t1")
	}
	if resp.User.ID != "1" || resp.User.Email != "a@b.com" {
		t.Errorf("User = %+v", resp.User)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "1"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(""))
	_, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x"})
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestAuthHeader_AttachedToProtectedPaths(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]domain.Project{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore("abc"))
	if _, err := c.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}
	if got != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
	}
}

func TestAuthHeader_ReadsStoreOnEveryRequest(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]domain.Project{}) //nolint:errcheck
	}))
	defer srv.Close()

	st := newTestStore("")
	c := New(srv.URL, st)
	c.ListProjects(context.Background()) //nolint:errcheck
	st.Save(store.KeyToken, "later")     //nolint:errcheck
	c.ListProjects(context.Background()) //nolint:errcheck

	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0] != "" {
		t.Errorf("first request Authorization = %q, want none", got[0])
	}
	if got[1] != "Bearer later" {
		t.Errorf("second request Authorization = %q, want %q", got[1], "Bearer later")
	}
}

func TestAuthHeader_NeverOnAuthEndpoints(t *testing.T) {
	headers := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers[r.URL.Path] = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "2"}, "token": "new"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore("stale"))
	if _, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if _, err := c.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	for _, p := range []string{"/users/login", "/users/register"} {
		h, ok := headers[p]
		if !ok {
			t.Errorf("no request to %s", p)
			continue
		}
		if h != "" {
			t.Errorf("%s Authorization = %q, want none", p, h)
		}
	}
}

func TestRequestID(t *testing.T) {
	var id string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(domain.Project{ID: "p1"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore("abc"))
	if _, err := c.GetProject(context.Background(), "p1"); err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", id)
	}
}

func TestUnauthorized_PurgesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not authorized, token failed"}) //nolint:errcheck
	}))
	defer srv.Close()

	st := newTestStore("abc")
	st.Save(store.KeyTheme, "dark") //nolint:errcheck
	c := New(srv.URL, st)
	_, err := c.ListProjects(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false", err)
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
	if st.Has(store.KeyToken) {
		t.Error("token survived a 401")
	}
	if st.Has(store.KeyUser) {
		t.Error("user record survived a 401")
	}
	if !st.Has(store.KeyTheme) {
		t.Error("theme should not be touched by a 401")
	}
}

func TestForbidden_KeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "nope"}) //nolint:errcheck
	}))
	defer srv.Close()

	st := newTestStore("abc")
	c := New(srv.URL, st)
	if _, err := c.ListProjects(context.Background()); !IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403, got %v", err)
	}
	if !st.Has(store.KeyToken) {
		t.Error("token should survive a 403")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		structured bool
	}{
		{"message field", 400, `{"message":"Incorrect email or password."}`, "Incorrect email or password.", true},
		{"error field", 400, `{"error":"bad input"}`, "bad input", true},
		{"plain text", 500, "boom", "boom", false},
		{"empty body", 502, "", "Bad Gateway", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, newTestStore(""))
			_, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x"})
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
			if httpErr.Structured != tt.structured {
				t.Errorf("Structured = %v, want %v", httpErr.Structured, tt.structured)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	const fallback = "Invalid email or password"
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"structured", &HTTPError{StatusCode: 400, Message: "Incorrect email or password.", Structured: true}, "Incorrect email or password."},
		{"unstructured", &HTTPError{StatusCode: 500, Message: "<html>"}, fallback},
		{"transport", &TransportError{Op: "do request", Err: errors.New("refused")}, fallback},
		{"wrapped structured", wrap(&HTTPError{StatusCode: 404, Message: "Project not found", Structured: true}), "Project not found"},
		{"foreign", errors.New("something else"), UnexpectedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, fallback); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "ctx: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore("abc"), WithTimeout(50*time.Millisecond))
	_, err := c.ListProjects(context.Background())
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if got := UserMessage(err, "Failed to load projects"); got != "Failed to load projects" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode([]domain.Project{}) //nolint:errcheck
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL, newTestStore("abc"))
	_, err := c.ListProjects(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server saw %d requests after cancel", hits.Load())
	}
}

func TestNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore("abc"))
	if err := c.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}
}

func TestProjectsAndTasks_AgainstFakeAPI(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	u := api.AddUser("a@b.com", "secret", "ana")
	st := store.NewMemoryStore()
	st.Save(store.KeyToken, api.Token(u)) //nolint:errcheck
	c := New(api.URL(), st)
	ctx := context.Background()

	p, err := c.CreateProject(ctx, ProjectRequest{Name: "Launch", Description: "ship it"})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if p.ID == "" || p.Name != "Launch" {
		t.Fatalf("created project = %+v", p)
	}

	p, err = c.UpdateProject(ctx, p.ID, ProjectRequest{Name: "Launch v2", Description: "ship it"})
	if err != nil {
		t.Fatalf("UpdateProject() error: %v", err)
	}
	if p.Name != "Launch v2" {
		t.Errorf("Name = %q, want %q", p.Name, "Launch v2")
	}

	task, err := c.CreateTask(ctx, p.ID, TaskRequest{Title: "Write docs", Description: "all of them"})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if task.Status != domain.StatusToDo {
		t.Errorf("new task status = %q, want %q", task.Status, domain.StatusToDo)
	}
	if task.ProjectID != p.ID {
		t.Errorf("ProjectID = %q, want %q", task.ProjectID, p.ID)
	}

	task, err = c.UpdateTaskStatus(ctx, task.ID, domain.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateTaskStatus() error: %v", err)
	}
	if task.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want %q", task.Status, domain.StatusInProgress)
	}
	if task.Title != "Write docs" {
		t.Errorf("status update changed title to %q", task.Title)
	}

	tasks, err := c.ListTasks(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	if err := c.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if n := api.Count(http.MethodDelete, "/api/tasks/"+task.ID); n != 1 {
		t.Errorf("DELETE count = %d, want 1", n)
	}
	if len(api.Tasks(p.ID)) != 0 {
		t.Error("task still stored after delete")
	}

	projects, err := c.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != p.ID {
		t.Errorf("projects = %+v", projects)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	u := api.AddUser("a@b.com", "secret", "ana")
	st := store.NewMemoryStore()
	st.Save(store.KeyToken, api.Token(u)) //nolint:errcheck

	c := New(api.URL(), st)
	_, err := c.GetProject(context.Background(), "missing")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
	if got := UserMessage(err, "Failed to load project"); got != "Project not found" {
		t.Errorf("UserMessage() = %q, want %q", got, "Project not found")
	}
}

func TestRevokedToken_PurgesSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	u := api.AddUser("a@b.com", "secret", "ana")
	st := store.NewMemoryStore()
	st.Save(store.KeyToken, api.Token(u))         //nolint:errcheck
	st.Save(store.KeyUser, `{"id":"`+u.ID+`"}`) //nolint:errcheck
	api.RevokeTokens()

	c := New(api.URL(), st)
	if _, err := c.ListProjects(context.Background()); !IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if st.Has(store.KeyToken) || st.Has(store.KeyUser) {
		t.Error("session keys survived a 401")
	}
}

func TestLoginAgainstFakeAPI(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("a@b.com", "secret", "ana")
	c := New(api.URL(), store.NewMemoryStore())

	if _, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"}); err == nil {
		t.Fatal("expected error for wrong password")
	} else if got := UserMessage(err, "Invalid email or password"); got != "Incorrect email or password." {
		t.Errorf("UserMessage() = %q", got)
	}

	resp, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.User.Username != "ana" || resp.Token == "" {
		t.Errorf("resp = %+v", resp)
	}
}
