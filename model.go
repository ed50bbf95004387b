package main

import (
	"time"

	"github.com/gofrs/uuid"

	"pushminder/button"
)

// ButtonSettings describes the single push button watched by the daemon.
type ButtonSettings struct {
	Name           string `json:"name"`             // human‑readable name (e.g. "Front Door Bell")
	Pin            int    `json:"pin"`              // GPIO pin number (BCM numbering)
	ActiveLow      bool   `json:"active_low"`       // true when a press pulls the line low
	PollIntervalMs int    `json:"poll_interval_ms"` // how often the pin is sampled
}

// PollInterval returns the configured sampling period, defaulting to 20ms.
func (b ButtonSettings) PollInterval() time.Duration {
	if b.PollIntervalMs <= 0 {
		return defaultPollInterval
	}
	return time.Duration(b.PollIntervalMs) * time.Millisecond
}

const defaultPollInterval = 20 * time.Millisecond

// User represents an account that can log in to the web API.
// Passwords are stored as bcrypt hashes.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Admin        bool   `json:"admin"`
}

// AlertConfig selects an alert handler and carries its settings.  Only the
// fields relevant to Type are read.
type AlertConfig struct {
	Type       string `json:"type"` // "log" or "email"
	OnRelease  bool   `json:"on_release,omitempty"`
	SMTPServer string `json:"smtp_server,omitempty"`
	SMTPPort   int    `json:"smtp_port,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// Config is the top‑level structure serialized to config.json.
type Config struct {
	HTTPPort int            `json:"http_port"` // port to listen on (default 8443)
	CertFile string         `json:"cert_file"` // path to PEM encoded certificate
	KeyFile  string         `json:"key_file"`  // path to PEM encoded key
	LogFile  string         `json:"log_file"`
	Button   ButtonSettings `json:"button"`
	Users    []User         `json:"users"`
	Alerts   []AlertConfig  `json:"alerts"`
}

// ButtonEvent is one transition reported by the monitor.  It is what gets
// logged, alerted on and streamed to websocket clients.
type ButtonEvent struct {
	ID     string    `json:"id"`
	Button string    `json:"button"`
	Pin    int       `json:"pin"`
	Type   string    `json:"type"` // "pressed" or "released"
	Time   time.Time `json:"time"`
}

// newButtonEvent stamps ev with a fresh ID and the current time.
func newButtonEvent(settings ButtonSettings, ev button.Event) ButtonEvent {
	id := ""
	if u, err := uuid.NewV4(); err == nil {
		id = u.String()
	}
	return ButtonEvent{
		ID:     id,
		Button: settings.Name,
		Pin:    settings.Pin,
		Type:   ev.String(),
		Time:   time.Now(),
	}
}

// Pressed reports whether the event is a press.
func (e ButtonEvent) Pressed() bool { return e.Type == button.EventPressed.String() }
