package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventLogger appends timestamped events to a file.  It is safe for
// concurrent use.  Write failures are reported through logrus and
// otherwise ignored.
type EventLogger struct {
	filePath string
	mu       sync.Mutex
	now      func() time.Time
}

func NewEventLogger(filePath string) *EventLogger {
	return &EventLogger{filePath: filePath, now: time.Now}
}

// Log writes a single event line of the form "<RFC3339> - <message>".
func (el *EventLogger) Log(format string, args ...any) {
	el.mu.Lock()
	defer el.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s - %s\n", el.now().Format(time.RFC3339), msg)
	f, err := os.OpenFile(el.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.WithError(err).WithField("file", el.filePath).Warn("event log open failed")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		log.WithError(err).WithField("file", el.filePath).Warn("event log write failed")
	}
}

// Tail returns up to the last n lines of the log, oldest first.  A missing
// file yields no lines.
func (el *EventLogger) Tail(n int) ([]string, error) {
	el.mu.Lock()
	defer el.mu.Unlock()
	f, err := os.Open(el.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
