package tasknest

import (
	"context"
	"io"

	internalaudit "github.com/tasknest/tasknest/internal/audit"
)

// UserRecord is the account record returned by [UserStore]. The password is
// present only as its bcrypt hash; plaintext never leaves the login path.
type UserRecord struct {
	UserID       string
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

// UserStore is the interface callers implement to integrate the engine with
// their user database. Email and username lookups are case-insensitive.
// Lookups return [ErrNotFound] when no user matches; Create must fail with an
// error unwrapping to [ErrDuplicateKey] when a unique constraint is violated,
// which is the sole correctness backstop for concurrent registrations.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByUsername(ctx context.Context, username string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Username string
	Password string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events, one per
// line, to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
