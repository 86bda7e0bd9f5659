package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Kind is the emphasis of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is a user-facing progress message.
type Notification struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Action      string `json:"action,omitempty"`
}

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// Nop discards notifications.
var Nop Sink = SinkFunc(func(Notification) {})

// LogSink writes notifications to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(n Notification) {
	fields := []zap.Field{zap.String("kind", string(n.Kind)), zap.String("title", n.Title)}
	if n.Description != "" {
		fields = append(fields, zap.String("description", n.Description))
	}
	if n.Action != "" {
		fields = append(fields, zap.String("action", n.Action))
	}
	switch n.Kind {
	case KindError:
		s.logger.Error("notification", fields...)
	case KindWarning:
		s.logger.Warn("notification", fields...)
	default:
		s.logger.Info("notification", fields...)
	}
}

// TerminalSink prints colored notifications for interactive use.
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalSink(out io.Writer) *TerminalSink {
	if out == nil {
		out = os.Stderr
	}
	return &TerminalSink{out: out}
}

func (s *TerminalSink) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, "%s %s\n", kindColor(n.Kind).Sprintf("[%s]", n.Kind), n.Title)
	if n.Description != "" {
		fmt.Fprintf(s.out, "  %s\n", n.Description)
	}
	if n.Action != "" {
		fmt.Fprintf(s.out, "  %s\n", color.CyanString(n.Action))
	}
}

func kindColor(kind Kind) *color.Color {
	switch kind {
	case KindSuccess:
		return color.New(color.FgGreen)
	case KindWarning:
		return color.New(color.FgYellow)
	case KindError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

// Multi fans a notification out to every sink.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return SinkFunc(func(n Notification) {
		for _, sink := range filtered {
			sink.Notify(n)
		}
	})
}
