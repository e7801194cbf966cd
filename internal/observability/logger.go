// Package observability provides structured logging and Prometheus metrics
// for conversation turns, cache tiers, and tools.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldTurnID is the field name for the per-turn request ID.
	LogFieldTurnID = "turn_id"
	// LogFieldConversation is the field name for the conversation UID.
	LogFieldConversation = "conversation"
	// LogFieldAgent is the field name for the active agent.
	LogFieldAgent = "agent"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// NewLogger builds the process logger. Dev mode lowers the level to debug.
func NewLogger(dev bool) *slog.Logger {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// TurnContext carries structured logging state for one conversation turn.
type TurnContext struct {
	TurnID       string
	Conversation string
	StartTime    time.Time
	Logger       *slog.Logger
}

// NewTurnContext creates a turn context with a generated turn ID.
func NewTurnContext(logger *slog.Logger, conversation string) *TurnContext {
	return &TurnContext{
		TurnID:       uuid.New().String(),
		Conversation: conversation,
		StartTime:    time.Now(),
		Logger:       logger,
	}
}

// Info logs an info message with the turn's base attributes.
func (t *TurnContext) Info(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, t.withBase(attrs)...)
}

// Debug logs a debug message with the turn's base attributes.
func (t *TurnContext) Debug(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, t.withBase(attrs)...)
}

// Warn logs a warning with the turn's base attributes.
func (t *TurnContext) Warn(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, t.withBase(attrs)...)
}

// Error logs an error message with the turn's base attributes.
func (t *TurnContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	t.Logger.LogAttrs(context.Background(), slog.LevelError, msg, t.withBase(attrs)...)
}

// DurationMs returns the elapsed time since the turn started in milliseconds.
func (t *TurnContext) DurationMs() int64 {
	return time.Since(t.StartTime).Milliseconds()
}

func (t *TurnContext) withBase(attrs []slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldTurnID, t.TurnID),
		slog.String(LogFieldConversation, t.Conversation),
	}
	return append(base, attrs...)
}

type ctxKey struct{}

// WithTurnContext attaches the turn context to the context.
func WithTurnContext(ctx context.Context, tc *TurnContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// TurnFromContext extracts the turn context, if any.
func TurnFromContext(ctx context.Context) (*TurnContext, bool) {
	tc, ok := ctx.Value(ctxKey{}).(*TurnContext)
	return tc, ok
}
