package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	ActionSignup      = "auth.signup"
	ActionLogin       = "auth.login"
	ActionMediaCreate = "media.create"
	ActionMediaView   = "media.view"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Event struct {
	At      string `json:"at"`
	Actor   string `json:"actor"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Logger appends one JSON line per event to a file. A nil Logger or an empty
// path disables the trail.
type Logger struct {
	path    string
	nowFunc func() time.Time
	mu      sync.Mutex
}

func NewLogger(path string) *Logger {
	return &Logger{path: path, nowFunc: time.Now}
}

func (l *Logger) Log(actor, action, target, outcome, detail string) error {
	if l == nil || l.path == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()

	zl := zerolog.New(f)
	e := zl.Log().
		Str("at", l.nowFunc().UTC().Format(time.RFC3339)).
		Str("actor", actor).
		Str("action", action)
	if target != "" {
		e = e.Str("target", target)
	}
	e = e.Str("outcome", outcome)
	if detail != "" {
		e = e.Str("detail", detail)
	}
	e.Send()
	return nil
}
