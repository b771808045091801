package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/memory"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/navigation"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/notify"
	"github.com/brotherhood-social/brotherhood/internal/logging"
)

const sessionCookie = "access_token"

type fakeAccount struct {
	User     map[string]any
	Password string
}

// fakeBackend is a cookie-session Brotherhood API good enough for the auth flows.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*fakeAccount // by email
	sessions map[string]string       // token -> email
	nextID   int

	meCalls     atomic.Int32
	postsCalls  atomic.Int32
	logoutCalls atomic.Int32

	// meGate, when set, holds /auth/me until closed. meEntered is signalled
	// once per /auth/me request that reached the handler.
	meGate    chan struct{}
	meEntered chan struct{}

	logoutStatus atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t:         t,
		accounts:  make(map[string]*fakeAccount),
		sessions:  make(map[string]string),
		meEntered: make(chan struct{}, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", b.handleMe)
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("POST /api/auth/register", b.handleRegister)
	mux.HandleFunc("POST /api/auth/logout", b.handleLogout)
	mux.HandleFunc("PATCH /api/auth/profile", b.handleProfile)
	mux.HandleFunc("GET /api/posts", b.handlePosts)
	mux.HandleFunc("POST /api/posts", b.handleCreatePost)
	mux.HandleFunc("POST /api/upload", b.handleUpload)

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) URL() string {
	return b.server.URL + "/api"
}

// addAccount registers an account directly.
func (b *fakeBackend) addAccount(email, password, firstName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.accounts[email] = &fakeAccount{
		Password: password,
		User: map[string]any{
			"id":         b.nextID,
			"email":      email,
			"first_name": firstName,
			"last_name":  "Tester",
			"is_active":  true,
			// Naive UTC, the way the server writes it.
			"created_at": "2025-01-15T10:30:00.123456",
		},
	}
}

// holdMe makes /auth/me wait until the returned release function is called.
func (b *fakeBackend) holdMe() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.meGate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.meGate = nil
			b.mu.Unlock()
			close(gate)
		})
	}
}

// sessionUser returns a copy of the signed-in user and their email.
func (b *fakeBackend) sessionUser(r *http.Request) (map[string]any, string) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.sessions[c.Value]
	if !ok {
		return nil, ""
	}
	return b.userCopyLocked(email), email
}

func (b *fakeBackend) userCopy(email string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userCopyLocked(email)
}

func (b *fakeBackend) userCopyLocked(email string) map[string]any {
	out := make(map[string]any)
	for k, v := range b.accounts[email].User {
		out[k] = v
	}
	return out
}

func (b *fakeBackend) startSession(w http.ResponseWriter, email string) {
	b.mu.Lock()
	token := fmt.Sprintf("tok-%d-%d", len(b.sessions)+1, time.Now().UnixNano())
	b.sessions[token] = email
	b.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.meCalls.Add(1)
	select {
	case b.meEntered <- struct{}{}:
	default:
	}
	b.mu.Lock()
	gate := b.meGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	u, _ := b.sessionUser(r)
	if u == nil {
		respond(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	respond(w, http.StatusOK, u)
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&creds)

	b.mu.Lock()
	acc, ok := b.accounts[creds.Email]
	valid := ok && acc.Password == creds.Password
	b.mu.Unlock()
	if !valid {
		respond(w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect email or password"})
		return
	}
	b.startSession(w, creds.Email)
	respond(w, http.StatusOK, map[string]any{"user": b.userCopy(creds.Email)})
}

func (b *fakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg map[string]string
	json.NewDecoder(r.Body).Decode(&reg)

	b.mu.Lock()
	_, exists := b.accounts[reg["email"]]
	b.mu.Unlock()
	if exists {
		respond(w, http.StatusBadRequest, map[string]any{"detail": "Email already registered"})
		return
	}
	b.addAccount(reg["email"], reg["password"], reg["first_name"])
	b.startSession(w, reg["email"])

	respond(w, http.StatusCreated, map[string]any{"user": b.userCopy(reg["email"])})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.logoutCalls.Add(1)
	if status := int(b.logoutStatus.Load()); status != 0 {
		respond(w, status, map[string]any{"detail": "logout failed"})
		return
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, c.Value)
		b.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	respond(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (b *fakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, email := b.sessionUser(r)
	if u == nil {
		respond(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	var updates map[string]string
	json.NewDecoder(r.Body).Decode(&updates)
	if name, ok := updates["first_name"]; ok && len(name) < 2 {
		respond(w, http.StatusBadRequest, map[string]any{"detail": "First name is too short"})
		return
	}

	b.mu.Lock()
	for k, v := range updates {
		b.accounts[email].User[k] = v
		u[k] = v
	}
	b.mu.Unlock()
	respond(w, http.StatusOK, u)
}

func (b *fakeBackend) handlePosts(w http.ResponseWriter, r *http.Request) {
	n := b.postsCalls.Add(1)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	respond(w, http.StatusOK, map[string]any{
		"page":  page,
		"fetch": n,
		"posts": []any{map[string]any{"id": 1, "content": "<script>x()</script>Hello brothers"}},
	})
}

func (b *fakeBackend) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)
	content, _ := body["content"].(string)
	if strings.TrimSpace(content) == "" {
		respond(w, http.StatusUnprocessableEntity, map[string]any{"detail": []any{
			map[string]any{"loc": []any{"body", "content"}, "msg": "field required"},
		}})
		return
	}
	respond(w, http.StatusCreated, map[string]any{"id": 2, "content": content})
}

func (b *fakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	defer file.Close()
	n, _ := io.Copy(io.Discard, file)
	respond(w, http.StatusOK, map[string]any{
		"filename":     header.Filename,
		"size":         n,
		"content_type": header.Header.Get("Content-Type"),
		"caption":      r.FormValue("caption"),
	})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// testClock is a settable clock for the request cache.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stack is the client core wired the way the shell wires it.
type stack struct {
	backend *fakeBackend
	client  *httpapi.Client
	cache   *memory.RequestCache
	clock   *testClock
	api     *APIService
	auth    *AuthService
	notices *notify.Recorder
	history *navigation.History
}

type stackConfig struct {
	start        string
	maxEntries   int
	logger       *slog.Logger
	checkTimeout time.Duration
	apiOpts      []APIOption
}

func newStack(t *testing.T, backend *fakeBackend, cfg stackConfig) *stack {
	t.Helper()
	if cfg.start == "" {
		cfg.start = "/login"
	}
	if cfg.maxEntries == 0 {
		cfg.maxEntries = memory.DefaultMaxEntries
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}

	s := &stack{
		backend: backend,
		clock:   newTestClock(),
		notices: notify.NewRecorder(),
		history: navigation.NewHistory(cfg.start),
	}
	s.cache = memory.NewRequestCacheWithClock(cfg.maxEntries, s.clock.Now)
	s.client = httpapi.NewClient(backend.URL(),
		httpapi.WithNotifier(s.notices),
		httpapi.WithNavigator(s.history),
		httpapi.WithLogger(cfg.logger),
		httpapi.WithBackoff(func(int) time.Duration { return time.Millisecond }),
	)
	s.api = NewAPIService(s.client, s.cache, cfg.logger, cfg.apiOpts...)

	var authOpts []AuthOption
	if cfg.checkTimeout > 0 {
		authOpts = append(authOpts, WithCheckTimeout(cfg.checkTimeout))
	}
	s.auth = NewAuthService(s.api, s.notices, s.history, cfg.logger, authOpts...)
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
