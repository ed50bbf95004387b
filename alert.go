package main

// Alert handlers notify people when the button changes state.

import (
	"fmt"
	"net/smtp"
	"strings"
)

// AlertHandler delivers a notification for a button event.  If Send returns
// an error the caller logs it and carries on.
type AlertHandler interface {
	Name() string
	Send(ev ButtonEvent, logger *EventLogger) error
}

// LogAlert writes the alert to the event log.  It is the default handler.
type LogAlert struct{}

func (LogAlert) Name() string { return "log" }

func (LogAlert) Send(ev ButtonEvent, logger *EventLogger) error {
	logger.Log("alert: button %s (pin %d) %s", ev.Button, ev.Pin, ev.Type)
	return nil
}

// EmailAlert sends an email via an SMTP server.  The subject defaults to
// "pushminder alert" if empty.
type EmailAlert struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	From       string
	To         string
	Subject    string

	// sendMail is smtp.SendMail outside of tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (EmailAlert) Name() string { return "email" }

// Send composes a plaintext message describing the event.  RFC 5322 wants
// CRLF line endings.
func (e EmailAlert) Send(ev ButtonEvent, logger *EventLogger) error {
	subject := e.Subject
	if subject == "" {
		subject = "pushminder alert"
	}
	body := fmt.Sprintf("Button %s (pin %d) was %s at %s", ev.Button, ev.Pin, ev.Type, ev.Time.Format("2006-01-02 15:04:05"))
	msg := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", e.To, subject, body)
	addr := fmt.Sprintf("%s:%d", e.SMTPServer, e.SMTPPort)
	auth := smtp.PlainAuth("", e.Username, e.Password, e.SMTPServer)
	send := e.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	return send(addr, auth, e.From, []string{e.To}, []byte(msg))
}

// alertRoute pairs a handler with the events it wants.
type alertRoute struct {
	handler   AlertHandler
	onRelease bool
}

// wants reports whether the route fires for ev.  Presses always alert.
func (r alertRoute) wants(ev ButtonEvent) bool {
	return ev.Pressed() || r.onRelease
}

// initAlertHandlers builds the routes from configuration.  With nothing
// usable configured a single LogAlert is returned so events are always
// recorded.
func initAlertHandlers(cfg Config) []alertRoute {
	var routes []alertRoute
	for _, ac := range cfg.Alerts {
		switch strings.ToLower(ac.Type) {
		case "log":
			routes = append(routes, alertRoute{handler: LogAlert{}, onRelease: ac.OnRelease})
		case "email":
			routes = append(routes, alertRoute{
				handler: EmailAlert{
					SMTPServer: ac.SMTPServer,
					SMTPPort:   ac.SMTPPort,
					Username:   ac.Username,
					Password:   ac.Password,
					From:       ac.From,
					To:         ac.To,
					Subject:    ac.Subject,
				},
				onRelease: ac.OnRelease,
			})
		}
	}
	if len(routes) == 0 {
		routes = append(routes, alertRoute{handler: LogAlert{}})
	}
	return routes
}
