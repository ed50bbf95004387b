package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// defaultConfigPath is used unless PUSHMINDER_CONFIG names another file.
const defaultConfigPath = "config.json"

// configPathFromEnv returns the configuration file location.
func configPathFromEnv() string {
	if p := os.Getenv("PUSHMINDER_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// defaultConfig is written on first start.  The admin password is "admin";
// change it immediately.
func defaultConfig() Config {
	return Config{
		HTTPPort: 8443,
		CertFile: "server.crt",
		KeyFile:  "server.key",
		LogFile:  "events.log",
		Button: ButtonSettings{
			Name:           "Button",
			Pin:            17,
			ActiveLow:      true,
			PollIntervalMs: int(defaultPollInterval.Milliseconds()),
		},
		Users: []User{
			{Username: defaultAdmin, PasswordHash: hashPassword("admin"), Admin: true},
		},
		Alerts: []AlertConfig{{Type: "log"}},
	}
}

// ConfigManager wraps the loaded configuration and a mutex for concurrent access.
type ConfigManager struct {
	path   string
	mu     sync.RWMutex
	cfg    Config
	loaded bool
}

// NewConfigManager returns a manager for the file at path.
func NewConfigManager(path string) *ConfigManager {
	return &ConfigManager{path: path}
}

// Load reads configuration from disk.  If the file does not exist, a default
// configuration is created and persisted.
func (cm *ConfigManager) Load() error {
	cm.mu.Lock()
	if cm.loaded {
		cm.mu.Unlock()
		return nil
	}
	data, err := os.ReadFile(cm.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cm.cfg = defaultConfig()
			cm.loaded = true
			// Save takes the read lock.
			cm.mu.Unlock()
			return cm.Save()
		}
		cm.mu.Unlock()
		return fmt.Errorf("unable to read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("invalid %s: %w", cm.path, err)
	}
	if err := validateConfig(cfg); err != nil {
		cm.mu.Unlock()
		return err
	}
	cm.cfg = cfg
	cm.loaded = true
	cm.mu.Unlock()
	return nil
}

// validateConfig rejects settings the daemon cannot run with.
func validateConfig(cfg Config) error {
	if cfg.Button.Pin < 0 {
		return fmt.Errorf("invalid button pin %d", cfg.Button.Pin)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", cfg.HTTPPort)
	}
	return nil
}

// Save writes the configuration to disk via a temporary file and rename.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	bytes, err := json.MarshalIndent(cm.cfg, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := cm.path + ".tmp"
	if err := os.WriteFile(tmpPath, bytes, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, cm.path)
}

// Get returns a copy of the current configuration.  Callers must treat the
// returned Config as immutable.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.cfg
}

// Update applies fn to the configuration under the write lock and then
// persists it.  fn must not keep the pointer.  If fn returns an error
// nothing is saved.
func (cm *ConfigManager) Update(fn func(*Config) error) error {
	cm.mu.Lock()
	next := cm.cfg
	next.Users = append([]User(nil), cm.cfg.Users...)
	if err := fn(&next); err != nil {
		cm.mu.Unlock()
		return err
	}
	cm.cfg = next
	// Save takes the read lock.
	cm.mu.Unlock()
	return cm.Save()
}

// FindUser returns a user by username and whether it exists.
func (cm *ConfigManager) FindUser(username string) (User, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, u := range cm.cfg.Users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

var errInvalidCredentials = errors.New("invalid credentials")

// Authenticate checks whether the provided username and password are valid.
func (cm *ConfigManager) Authenticate(username, password string) (User, error) {
	user, ok := cm.FindUser(username)
	if !ok {
		return User{}, errInvalidCredentials
	}
	if err := checkPasswordHash(password, user.PasswordHash); err != nil {
		return User{}, errInvalidCredentials
	}
	return user, nil
}
