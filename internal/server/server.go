// internal/server/server.go
//
// The reference employee API. Serves the same wire contract the console's
// api.Client consumes: every success envelope is {"employees": ...} or
// {"employee": ..., "message": ...}, every failure is {"error": ...}, and
// every protected route answers 401 without a valid session cookie.

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/onboard/internal/employee"
	"github.com/kingrea/onboard/internal/logbook"
)

// Server wraps the HTTP listener and handlers backing the employee API.
type Server struct {
	addr     string
	store    *Store
	creds    Credentials
	sessions *SessionStore
	log      *logbook.Logbook
	clock    func() time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option customizes server construction.
type Option func(*Server)

// WithLogbook attaches a session log; entries are scoped "server".
func WithLogbook(log *logbook.Logbook) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log.WithScope("server")
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New prepares an employee API server bound to addr.
func New(addr string, store *Store, creds Credentials, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		store:    store,
		creds:    creds,
		sessions: NewSessionStore(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.listener = listener

	srv := &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if ctx != nil {
		srv.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = srv
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve error: %v", err)
		}
	}()
	s.log.Info("listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /check-auth", s.handleCheckAuth)
	mux.Handle("GET /employees", s.requireSession(s.handleList))
	mux.Handle("GET /employees/pending", s.requireSession(s.handlePending))
	mux.Handle("GET /employees/{id}", s.requireSession(s.handleGet))
	mux.Handle("POST /employees", s.requireSession(s.handleCreate))
	mux.Handle("PUT /employees/{id}", s.requireSession(s.handleUpdate))
	mux.Handle("DELETE /employees/{id}", s.requireSession(s.handleDelete))
	mux.Handle("POST /employees/complete-onboarding/{id}", s.requireSession(s.handleCompleteOnboarding))
	return mux
}

// requireSession rejects requests without a live session cookie. There is no
// fallback identity; an expired or missing cookie always means 401.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		if _, ok := s.sessions.Get(cookie.Value); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		next(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !s.creds.Verify(payload.Username, payload.Password) {
		s.log.Warn("rejected login for %q", payload.Username)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	token, err := s.sessions.Create(payload.Username)
	if err != nil {
		s.internalError(w, "create session", err)
		return
	}
	setSessionCookie(w, token)
	s.log.Info("login: %s", payload.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Login successful"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		s.sessions.Delete(cookie.Value)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logout successful"})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		if session, ok := s.sessions.Get(cookie.Value); ok {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": session.Username})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.internalError(w, "list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": emptyIfNil(records)})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.internalError(w, "list employees", err)
		return
	}
	pending := make([]Record, 0, len(records))
	for _, rec := range records {
		if employee.Classify(rec.Status).PendingOnboarding() {
			pending = append(pending, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": pending})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, "get employee", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Employee not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": rec})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeBody(w, r)
	if !ok {
		return
	}
	for _, field := range []string{"name", "position", "department", "startDate"} {
		if value, _ := raw[field].(string); strings.TrimSpace(value) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: " + field})
			return
		}
	}
	var rec Record
	applyPatch(&rec, raw)
	created, err := s.store.Create(r.Context(), rec)
	if err != nil {
		s.internalError(w, "create employee", err)
		return
	}
	s.log.Info("created employee %s (%s)", created.Name, created.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"employee": created, "message": "Employee created successfully"})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, "get employee", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Employee not found"})
		return
	}
	raw, ok := decodeBody(w, r)
	if !ok {
		return
	}
	// Fields absent from the payload keep their stored values.
	applyPatch(&existing, raw)
	updated, err := s.store.Update(r.Context(), existing)
	if err != nil {
		s.internalError(w, "update employee", err)
		return
	}
	s.log.Info("updated employee %s", id)
	writeJSON(w, http.StatusOK, map[string]any{"employee": updated, "message": "Employee updated successfully"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.internalError(w, "delete employee", err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Employee not found"})
		return
	}
	s.log.Info("deleted employee %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Employee deleted successfully"})
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, "get employee", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Employee not found"})
		return
	}
	rec.Status = "Completed"
	rec.HRNotes = append(rec.HRNotes, "Onboarding completed on "+s.clock().Format("2006-01-02"))
	updated, err := s.store.Update(r.Context(), rec)
	if err != nil {
		s.internalError(w, "complete onboarding", err)
		return
	}
	s.log.Info("completed onboarding for employee %s", id)
	writeJSON(w, http.StatusOK, map[string]any{"employee": updated, "message": "Onboarding completed successfully"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("%s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}
	return raw, true
}

// applyPatch overlays the string and list fields present in raw onto rec.
// Identity and timestamp fields are never patchable from a request body.
func applyPatch(rec *Record, raw map[string]any) {
	patchString(raw, "name", &rec.Name)
	patchString(raw, "position", &rec.Position)
	patchString(raw, "department", &rec.Department)
	patchString(raw, "startDate", &rec.StartDate)
	patchString(raw, "status", &rec.Status)
	patchList(raw, "equipmentNeeds", &rec.EquipmentNeeds)
	patchList(raw, "systemAccess", &rec.SystemAccess)
	patchList(raw, "trainingRequirements", &rec.TrainingRequirements)
	patchList(raw, "hrNotes", &rec.HRNotes)
	patchList(raw, "itNotes", &rec.ITNotes)
}

func patchString(raw map[string]any, key string, dst *string) {
	if value, ok := raw[key].(string); ok {
		*dst = value
	}
}

func patchList(raw map[string]any, key string, dst *[]string) {
	entries, ok := raw[key].([]any)
	if !ok {
		return
	}
	values := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			values = append(values, s)
		}
	}
	*dst = values
}

func emptyIfNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}

// OpenDB opens (or creates) the SQLite database at path and prepares the
// schema. Callers own closing the handle.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("server: open database %s: %w", path, err)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
