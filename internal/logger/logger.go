package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with a component name so every record
// identifies the part of the system that emitted it.
type Logger struct {
	*slog.Logger
	component string
}

// New creates a logger writing text records to stdout at the given level
func New(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{
		Logger:    slog.New(handler),
		component: "app",
	}
}

// WithComponent returns a logger scoped to a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}
