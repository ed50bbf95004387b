package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// defaultAdmin is created on first start and cannot be deleted.
const defaultAdmin = "admin"

var (
	errUserExists   = errors.New("user exists")
	errUserNotFound = errors.New("user not found")
)

// userView is a User without its password hash.
type userView struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// handleUsers lists users (GET) or creates one (POST).  Admins only.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, user User) {
	if !user.Admin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	switch r.Method {
	case http.MethodGet:
		cfg := s.cfgMgr.Get()
		users := make([]userView, len(cfg.Users))
		for i, u := range cfg.Users {
			users[i] = userView{Username: u.Username, Admin: u.Admin}
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Admin    bool   `json:"admin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" || strings.Contains(req.Username, "/") {
			http.Error(w, "missing or invalid username or password", http.StatusBadRequest)
			return
		}
		err := s.cfgMgr.Update(func(c *Config) error {
			for _, u := range c.Users {
				if u.Username == req.Username {
					return errUserExists
				}
			}
			c.Users = append(c.Users, User{Username: req.Username, PasswordHash: hashPassword(req.Password), Admin: req.Admin})
			return nil
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		s.logger.Log("create user %s by %s", req.Username, user.Username)
		writeJSON(w, http.StatusCreated, userView{Username: req.Username, Admin: req.Admin})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleUserByName serves GET/PUT/DELETE on /api/users/{username}.  PUT
// takes an optional password and admin flag.  Admins only.
func (s *Server) handleUserByName(w http.ResponseWriter, r *http.Request, user User) {
	if !user.Admin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	username := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if username == "" || strings.Contains(username, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		u, ok := s.cfgMgr.FindUser(username)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, userView{Username: u.Username, Admin: u.Admin})
	case http.MethodPut:
		var req struct {
			Password *string `json:"password,omitempty"`
			Admin    *bool   `json:"admin,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Password != nil && *req.Password == "" {
			http.Error(w, "empty password", http.StatusBadRequest)
			return
		}
		err := s.cfgMgr.Update(func(c *Config) error {
			for i, u := range c.Users {
				if u.Username != username {
					continue
				}
				if req.Password != nil {
					c.Users[i].PasswordHash = hashPassword(*req.Password)
				}
				if req.Admin != nil {
					c.Users[i].Admin = *req.Admin
				}
				return nil
			}
			return errUserNotFound
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		s.logger.Log("update user %s by %s", username, user.Username)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if username == defaultAdmin {
			http.Error(w, "cannot delete default admin", http.StatusBadRequest)
			return
		}
		err := s.cfgMgr.Update(func(c *Config) error {
			for i, u := range c.Users {
				if u.Username == username {
					c.Users = append(c.Users[:i], c.Users[i+1:]...)
					return nil
				}
			}
			return errUserNotFound
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		s.logger.Log("delete user %s by %s", username, user.Username)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errUserNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
