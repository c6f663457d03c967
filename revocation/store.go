// Package revocation is an expiring key-value store for refresh-session
// records and the token blacklist. It holds no business rules.
package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every backend failure. Callers must treat it as
// "unknown", never as "absent".
var ErrUnavailable = errors.New("revocation store unavailable")

// Store is an expiring map. Every operation may fail and every failure
// is returned.
type Store interface {
	// Set writes key with a ttl. A non-positive ttl is rejected.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Del removes key; deleting an absent key is not an error
	Del(ctx context.Context, key string) error

	// CompareAndDelete atomically removes key only when it holds expected,
	// and reports whether it did
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)

	// Ping is the liveness probe
	Ping(ctx context.Context) error
}

// ErrInvalidTTL is returned by Set for non-positive ttls
var ErrInvalidTTL = errors.New("revocation: ttl must be positive")
