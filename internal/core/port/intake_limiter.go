package port

import (
	"context"
	"time"
)

// IntakeLimiter bounds how often a single client may register inbound
// webhooks. Allow reports whether the attempt fits the window and, when it
// does not, how long the caller should wait before retrying.
type IntakeLimiter interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, time.Duration, error)
}
