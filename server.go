package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pushminder/button"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server ties the button monitor to the HTTPS API.
type Server struct {
	cfgMgr   *ConfigManager
	sessions *SessionManager
	logger   *EventLogger
	hal      button.HAL
	monitor  *Monitor
	alerts   []alertRoute
	hub      *eventHub
	http     *http.Server

	// done is closed on shutdown so websocket streams end; Shutdown does
	// not touch hijacked connections.
	done      chan struct{}
	closeOnce sync.Once
}

// NewServer builds the server and initialises the button.  A failed pin
// configuration is logged but does not stop the server: the monitor then
// reports initialized=false and never fires.
func NewServer(cfgMgr *ConfigManager, hal button.HAL) *Server {
	cfg := cfgMgr.Get()
	s := &Server{
		cfgMgr:   cfgMgr,
		sessions: NewSessionManager(),
		logger:   NewEventLogger(cfg.LogFile),
		hal:      hal,
		alerts:   initAlertHandlers(cfg),
		hub:      newEventHub(),
		done:     make(chan struct{}),
	}
	s.monitor = NewMonitor(cfg.Button, hal, s.dispatch)
	if err := s.monitor.Init(); err != nil {
		log.WithError(err).WithField("pin", cfg.Button.Pin).Error("button init failed")
		s.logger.Log("button %s init failed: %v", cfg.Button.Name, err)
	} else {
		s.logger.Log("button %s ready on pin %d", cfg.Button.Name, cfg.Button.Pin)
	}
	return s
}

// dispatch records an event, runs the alert handlers and pushes it to
// websocket clients.
func (s *Server) dispatch(ev ButtonEvent) {
	s.logger.Log("button %s %s", ev.Button, ev.Type)
	for _, r := range s.alerts {
		if !r.wants(ev) {
			continue
		}
		if err := r.handler.Send(ev, s.logger); err != nil {
			s.logger.Log("alert handler %s error: %v", r.handler.Name(), err)
			log.WithError(err).WithField("handler", r.handler.Name()).Warn("alert failed")
		}
	}
	s.hub.broadcast(ev)
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/status", s.withAuth(s.handleStatus))
	mux.HandleFunc("/api/logs", s.withAuth(s.handleLogs))
	mux.HandleFunc("/api/simulate", s.withAuth(s.handleSimulate))
	mux.HandleFunc("/api/events", s.withAuth(s.handleEvents))
	mux.HandleFunc("/api/users", s.withAuth(s.handleUsers))
	mux.HandleFunc("/api/users/", s.withAuth(s.handleUserByName))
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})
	return mux
}

// withAuth wraps handlers that require a valid session.  The session's
// user is looked up on every request so deleted users lose access at once.
func (s *Server) withAuth(handler func(http.ResponseWriter, *http.Request, User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		username, ok := s.sessions.Lookup(c.Value)
		if !ok {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		user, ok := s.cfgMgr.FindUser(username)
		if !ok {
			s.sessions.Delete(c.Value)
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		handler(w, r, user)
	}
}

// checkTLSFiles reports every certificate or key file that cannot be read.
func checkTLSFiles(certFile, keyFile string) error {
	var missing []string
	for _, f := range []string{certFile, keyFile} {
		if _, err := os.Stat(f); err != nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("TLS files not found: %s (create a certificate or point cert_file/key_file at one)", strings.Join(missing, ", "))
	}
	return nil
}

// closeStreams ends all websocket streams.  Safe to call more than once.
func (s *Server) closeStreams() {
	s.closeOnce.Do(func() { close(s.done) })
}

// purgeSessions drops expired sessions every period until ctx is done.
func (s *Server) purgeSessions(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sessions.Purge()
		}
	}
}

// Run starts the poll loop and serves HTTPS until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.cfgMgr.Get()
	if err := checkTLSFiles(cfg.CertFile, cfg.KeyFile); err != nil {
		return err
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.monitor.Run(ctx)
	go s.purgeSessions(ctx, sessionPurgePeriod)
	go func() {
		<-ctx.Done()
		s.closeStreams()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", s.http.Addr).Info("listening")
	err := s.http.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user, err := s.cfgMgr.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Log("failed login for %s", req.Username)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	id, expires, err := s.sessions.Create(user.Username, sessionTTL)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	s.logger.Log("login %s", user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"username": user.Username, "admin": user.Admin})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
	})
	s.logger.Log("logout")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, user User) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.monitor.Status())
}

// handleLogs returns the last n event log lines (default 100).
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request, user User) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n := 100
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	lines, err := s.logger.Tail(n)
	if err != nil {
		http.Error(w, "unable to read log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// handleSimulate drives the in-memory HAL for wiring tests on a desktop.
// It is not available when real GPIO is in use.  Admins only.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request, user User) {
	if !user.Admin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stub, ok := s.hal.(*stubHAL)
	if !ok {
		http.Error(w, "simulation not available", http.StatusNotFound)
		return
	}
	var req struct {
		Level *bool `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	pin := s.cfgMgr.Get().Button.Pin
	stub.SetLevel(button.Pin(pin), *req.Level)
	s.logger.Log("simulate pin %d level=%t by %s", pin, *req.Level, user.Username)
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams button events to a websocket client until it
// disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, user User) {
	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).WithField("user", user.Username).Debug("websocket write failed")
				return
			}
		}
	}
}
