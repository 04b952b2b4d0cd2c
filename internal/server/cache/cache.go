// Package cache provides the short-TTL cache used for the expensive
// admin aggregates, with a redis implementation for deployments and an
// in-memory one for single-node use and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	// GetJSON unmarshals the cached value into out.
	GetJSON(ctx context.Context, key string, out any) error
	// SetJSON marshals value and stores it for ttl.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
