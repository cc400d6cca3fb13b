// Package locker serializes reservation admissions on a single listing.
package locker

import (
	"context"
	"time"
)

// Locker grants exclusive access to a key. The returned release func is safe to
// call once and must be called on every path.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const pollInterval = 25 * time.Millisecond
