package main

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie      = "session"
	sessionTTL         = 24 * time.Hour
	sessionPurgePeriod = 10 * time.Minute
)

// hashPassword returns a bcrypt hash of password.  It panics on failure,
// which only happens for passwords longer than bcrypt accepts.
func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func checkPasswordHash(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type session struct {
	username string
	expires  time.Time
}

// SessionManager keeps login sessions in memory.  Sessions do not survive
// a restart.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]session), now: time.Now}
}

// Create opens a session for username and returns its ID.
func (sm *SessionManager) Create(username string, ttl time.Duration) (string, time.Time, error) {
	id, err := randomString(32)
	if err != nil {
		return "", time.Time{}, err
	}
	now := sm.now()
	expires := now.Add(ttl)
	sm.mu.Lock()
	sm.purgeLocked(now)
	sm.sessions[id] = session{username: username, expires: expires}
	sm.mu.Unlock()
	return id, expires, nil
}

// Lookup returns the user name for a live session.  Expired sessions are
// dropped as they are found.
func (sm *SessionManager) Lookup(id string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if !ok {
		return "", false
	}
	if sm.now().After(s.expires) {
		delete(sm.sessions, id)
		return "", false
	}
	return s.username, true
}

// Delete ends a session.  It returns true if the session existed.
func (sm *SessionManager) Delete(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[id]
	delete(sm.sessions, id)
	return ok
}

// Purge removes all expired sessions.
func (sm *SessionManager) Purge() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.purgeLocked(sm.now())
}

func (sm *SessionManager) purgeLocked(now time.Time) {
	for id, s := range sm.sessions {
		if now.After(s.expires) {
			delete(sm.sessions, id)
		}
	}
}

// Len returns the number of sessions held, expired or not.
func (sm *SessionManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// randomString returns n random bytes encoded as URL‑safe base64.
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
