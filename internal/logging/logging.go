package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
)

// Logger aliases the cross-package logging contract so callers can depend on
// this package alone.
type Logger = interfaces.Logger

// Field aliases the structured field type.
type Field = interfaces.Field

// StdoutLogger is a tiny, structured logger. It implements interfaces.Logger
// and prints JSON lines to stdout. Base fields set via With ride along on
// every entry the child emits.
type StdoutLogger struct {
	component string
	base      []interfaces.Field
	out       io.Writer
}

// NewStdoutLogger creates a new StdoutLogger. component is optional and is
// included on every entry.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{component: component, out: os.Stdout}
}

func (s *StdoutLogger) log(level string, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(s.base)+len(fields))
	for _, f := range s.base {
		m[f.Key] = f.Value
	}
	// Call-site fields win over inherited ones on key collision.
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		// Fallback simple formatting if JSON marshal fails
		fmt.Fprintf(s.out, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(s.out, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) {
	s.log("debug", msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field) {
	s.log("info", msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field) {
	s.log("warn", msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) {
	s.log("error", msg, fields...)
}

// With returns a child logger carrying fields on every entry. A "component"
// field additionally replaces the child's component tag.
func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &StdoutLogger{
		component: s.component,
		base:      make([]interfaces.Field, 0, len(s.base)+len(fields)),
		out:       s.out,
	}
	child.base = append(child.base, s.base...)
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.base = append(child.base, f)
	}
	return child
}

var _ interfaces.Logger = (*StdoutLogger)(nil)
