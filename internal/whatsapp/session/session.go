// Package session tracks which WhatsApp senders have activated the assistant.
package session

import (
	"context"
	"time"
)

// DefaultTTL bounds how long an idle sender is remembered.
const DefaultTTL = 24 * time.Hour

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Session is the activation state of one sender. A sender with no Session is Unknown.
type Session struct {
	Sender    string `json:"sender"`
	Activated bool   `json:"activated"`
}

// Store persists per-sender activation state.
type Store interface {
	// Get returns the session for sender and whether one exists.
	Get(ctx context.Context, sender string) (Session, bool, error)

	// EnsurePending records sender as Pending unless a session already exists,
	// and returns the resulting session.
	EnsurePending(ctx context.Context, sender string) (Session, error)

	// Activate marks sender Active in one atomic step and reports whether it
	// already was.
	Activate(ctx context.Context, sender string) (wasActive bool, err error)
}
