// Package audit ships session lifecycle events off the request path
package audit

import (
	"context"
	"time"
)

// Event types
const (
	TypeRegistered      = "user.registered"
	TypeLogin           = "session.login"
	TypeLoginFailed     = "session.login_failed"
	TypeRefreshed       = "session.refreshed"
	TypeRefreshRejected = "session.refresh_rejected"
	TypeLogout          = "session.logout"
)

// Event is one audit record. Reason is an internal diagnostic and is
// never shown to the end user.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Emitter accepts events without blocking the caller
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Sink persists events
type Sink interface {
	Write(ctx context.Context, event Event) error
	Close() error
}

// NopEmitter drops everything
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}
