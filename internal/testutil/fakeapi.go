// Package testutil provides an in-memory Pro-Tasker API for tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/protasker/pkg/domain"
)

// Request is one call the fake API received.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user domain.User
	hash []byte
}

type failure struct {
	status  int
	message string
}

// FakeAPI serves the Pro-Tasker REST API under /api from memory. Tokens are
// HS256 JWTs; passwords are bcrypt hashes. Projects are scoped to their owner.
type FakeAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	secret   []byte
	nextID   int
	accounts map[string]*account // by email
	projects []domain.Project
	owners   map[string]string // project id -> user id
	tasks    []domain.Task
	requests []Request
	failures map[string]failure // "METHOD /path" -> forced response
	now      func() time.Time
}

// NewFakeAPI starts a fake API server that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		secret:   []byte("fake-secret"),
		accounts: make(map[string]*account),
		owners:   make(map[string]string),
		failures: make(map[string]failure),
		now:      time.Now,
	}
	f.srv = httptest.NewServer(f.router())
	t.Cleanup(f.srv.Close)
	return f
}

// URL is the API base URL, including the /api base path.
func (f *FakeAPI) URL() string {
	return f.srv.URL + "/api"
}

func (f *FakeAPI) router() http.Handler {
	r := mux.NewRouter()
	r.Use(f.record)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/users/login", f.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/users/register", f.handleRegister).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(f.requireToken)
	authed.HandleFunc("/projects", f.handleListProjects).Methods(http.MethodGet)
	authed.HandleFunc("/projects", f.handleCreateProject).Methods(http.MethodPost)
	authed.HandleFunc("/projects/{id}", f.handleGetProject).Methods(http.MethodGet)
	authed.HandleFunc("/projects/{id}", f.handleUpdateProject).Methods(http.MethodPut)
	authed.HandleFunc("/projects/{id}", f.handleDeleteProject).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{id}", f.handleGetTask).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id}", f.handleUpdateTask).Methods(http.MethodPut)
	authed.HandleFunc("/tasks/{id}", f.handleDeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/{projectId}/tasks", f.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/{projectId}/tasks", f.handleCreateTask).Methods(http.MethodPost)
	return r
}

// -- seeding --

// AddUser registers an account directly and returns its user record.
func (f *FakeAPI) AddUser(email, password, username string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, _ := f.addUserLocked(email, password, username) //nolint:errcheck // bcrypt at MinCost does not fail for short test passwords
	return u
}

func (f *FakeAPI) addUserLocked(email, password, username string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{ID: f.newIDLocked("u"), Email: email, Username: username}
	f.accounts[strings.ToLower(email)] = &account{user: u, hash: hash}
	return u, nil
}

// AddProject creates a project owned by owner.
func (f *FakeAPI) AddProject(owner domain.User, name, description string) domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	p := domain.Project{ID: f.newIDLocked("p"), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	f.projects = append(f.projects, p)
	f.owners[p.ID] = owner.ID
	return p
}

// AddTask creates a task in project.
func (f *FakeAPI) AddTask(projectID, title string, status domain.TaskStatus) domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	t := domain.Task{ID: f.newIDLocked("t"), Title: title, Status: status, ProjectID: projectID, CreatedAt: now, UpdatedAt: now}
	f.tasks = append(f.tasks, t)
	return t
}

// Token mints a valid bearer token for u.
func (f *FakeAPI) Token(u domain.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenLocked(u)
}

// RevokeTokens rotates the signing secret so every issued token is rejected.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = append(f.secret, 'x')
}

// Fail makes the next request to method+path answer status with message.
func (f *FakeAPI) Fail(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, message: message}
}

// -- inspection --

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns how many requests matched method and path.
func (f *FakeAPI) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Tasks returns the stored tasks of a project.
func (f *FakeAPI) Tasks(projectID string) []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// -- middleware --

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		forced, ok := f.failures[r.Method+" "+r.URL.Path]
		if ok {
			delete(f.failures, r.Method+" "+r.URL.Path)
		}
		f.mu.Unlock()

		if ok {
			writeError(w, forced.status, forced.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		f.mu.Lock()
		secret := f.secret
		f.mu.Unlock()

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, claims.Subject)))
	})
}

// -- handlers --

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[strings.ToLower(req.Email)]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Incorrect email or password.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acct.user, "token": f.tokenLocked(acct.user)})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	u, err := f.addUserLocked(req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	u.FirstName, u.LastName = req.FirstName, req.LastName
	f.accounts[strings.ToLower(req.Email)].user = u
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "token": f.tokenLocked(u)})
}

func (f *FakeAPI) handleListProjects(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Project{}
	for _, p := range f.projects {
		if f.owners[p.ID] == uid {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	p := domain.Project{ID: f.newIDLocked("p"), Name: req.Name, Description: req.Description, CreatedAt: now, UpdatedAt: now}
	f.projects = append(f.projects, p)
	f.owners[p.ID] = userFrom(r)
	writeJSON(w, http.StatusCreated, p)
}

func (f *FakeAPI) handleGetProject(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedProjectLocked(r, mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, f.projects[i])
}

func (f *FakeAPI) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedProjectLocked(r, mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if req.Name != nil {
		f.projects[i].Name = *req.Name
	}
	if req.Description != nil {
		f.projects[i].Description = *req.Description
	}
	f.projects[i].UpdatedAt = f.now()
	writeJSON(w, http.StatusOK, f.projects[i])
}

func (f *FakeAPI) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := mux.Vars(r)["id"]
	i := f.ownedProjectLocked(r, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	f.projects = append(f.projects[:i], f.projects[i+1:]...)
	delete(f.owners, id)
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.ProjectID != id {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

func (f *FakeAPI) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pid := mux.Vars(r)["projectId"]
	if f.ownedProjectLocked(r, pid) < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.ProjectID == pid {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Status      domain.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	if req.Status == "" {
		req.Status = domain.StatusToDo
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pid := mux.Vars(r)["projectId"]
	if f.ownedProjectLocked(r, pid) < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	now := f.now()
	t := domain.Task{ID: f.newIDLocked("t"), Title: req.Title, Description: req.Description, Status: req.Status, ProjectID: pid, CreatedAt: now, UpdatedAt: now}
	f.tasks = append(f.tasks, t)
	writeJSON(w, http.StatusCreated, t)
}

func (f *FakeAPI) handleGetTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedTaskLocked(r, mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, f.tasks[i])
}

func (f *FakeAPI) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Status      domain.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedTaskLocked(r, mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if req.Title != "" {
		f.tasks[i].Title = req.Title
	}
	if req.Description != "" {
		f.tasks[i].Description = req.Description
	}
	if req.Status != "" {
		f.tasks[i].Status = req.Status
	}
	f.tasks[i].UpdatedAt = f.now()
	writeJSON(w, http.StatusOK, f.tasks[i])
}

func (f *FakeAPI) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedTaskLocked(r, mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// -- helpers --

func (f *FakeAPI) newIDLocked(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *FakeAPI) tokenLocked(u domain.User) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(f.now()),
		ExpiresAt: jwt.NewNumericDate(f.now().Add(time.Hour)),
	})
	s, _ := tok.SignedString(f.secret) //nolint:errcheck // HMAC signing with a byte key cannot fail
	return s
}

func (f *FakeAPI) ownedProjectLocked(r *http.Request, id string) int {
	uid := userFrom(r)
	for i, p := range f.projects {
		if p.ID == id && f.owners[id] == uid {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) ownedTaskLocked(r *http.Request, id string) int {
	uid := userFrom(r)
	for i, t := range f.tasks {
		if t.ID == id && f.owners[t.ProjectID] == uid {
			return i
		}
	}
	return -1
}

func contextWithUser(r *http.Request, uid string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, uid)
}

func userFrom(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
