// Package logger builds the zap logger used across the dashboard.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/you/retaildash/domain"
)

// New returns a logger writing at level in the given format ("json" or "console")
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel

	return cfg.Build()
}

// EventLogger writes session events as structured log lines
type EventLogger struct {
	log *zap.Logger
}

func NewEventLogger(log *zap.Logger) *EventLogger {
	return &EventLogger{log: log.Named("session")}
}

func (l *EventLogger) LogEvent(_ context.Context, event *domain.SessionEvent) {
	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID), zap.String("role", string(event.Role)))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.Phone != "" {
		fields = append(fields, zap.String("phone", event.Phone))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if !event.Success {
		l.log.Warn("session event", append(fields, zap.String("error", event.ErrorMsg))...)
		return
	}
	l.log.Info("session event", fields...)
}

var _ domain.SessionEventLogger = (*EventLogger)(nil)
