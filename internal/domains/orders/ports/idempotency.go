package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the key was already used for a different order request.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// ClaimTimeout is how long an unfinished claim blocks its key before another request may take it over.
const ClaimTimeout = 2 * time.Minute

// IdempotencyRecord binds a client-supplied Idempotency-Key to the order it created.
// OrderID stays zero while the owning request is still running.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
}

// Pending reports whether the claiming request has not persisted its order yet.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == 0
}

// IdempotencyStore reserves keys before an order is placed so concurrent retries cannot both place it.
type IdempotencyStore interface {
	// Claim reserves key for a new request. When the key is already held, the stored record is
	// returned with claimed=false. Pending claims older than ClaimTimeout are taken over.
	Claim(ctx context.Context, key, requestHash string) (record *IdempotencyRecord, claimed bool, err error)
	// Complete binds a pending claim to the order it produced.
	Complete(ctx context.Context, key string, orderID int64) error
	// Release drops a pending claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
