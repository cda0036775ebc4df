package types

import (
	"errors"
	"fmt"
)

// TransportError wraps a connection reset, timeout, or DNS failure talking to
// an upstream venue. Retried by the caller with exponential backoff.
type TransportError struct {
	Upstream string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error talking to %s: %s", e.Upstream, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError is reported by an upstream with a retry hint.
type RateLimitError struct {
	Upstream   string
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Upstream, e.RetryAfter)
}

// AuthError indicates a signing failure or rejected credentials. Fatal to the
// current cycle.
type AuthError struct {
	Upstream string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error: %s", e.Upstream, e.Reason)
}

// UpstreamBusinessError is a 4xx/5xx with a machine-readable reason, e.g.
// market closed or invalid price.
type UpstreamBusinessError struct {
	Upstream string
	Code     string
	Message  string
}

func (e *UpstreamBusinessError) Error() string {
	return fmt.Sprintf("%s rejected request: %s (%s)", e.Upstream, e.Message, e.Code)
}

// ValidationError signals an option out of range, a malformed mapping row, or
// a price outside the legal 1..99 cent range. Fails fast at startup, counted
// at runtime.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// DataQualityError covers stale quotes, a missing opposite-side quote, or an
// invalid book (bid >= ask). Callers drop the comparison silently and
// increment a counter; this type exists so the drop reason is structured.
type DataQualityError struct {
	Reason string
}

func (e *DataQualityError) Error() string {
	return "data quality: " + e.Reason
}

// StorageError wraps a persistence failure. A unique-constraint violation on
// idempotency_key is not an error from the caller's point of view — see
// IsDuplicateKey.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %s", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InternalInvariantError indicates a bug: a negative contract count, a
// probability outside (0,1), and similar. Always fatal.
type InternalInvariantError struct {
	Invariant string
}

func (e *InternalInvariantError) Error() string {
	return "internal invariant violated: " + e.Invariant
}

// OrderError mirrors an order-lifecycle failure surfaced by the exchange,
// e.g. a rejected submission. The Reason is shown to the operator verbatim.
type OrderError struct {
	Code    string
	Message string
	OrderID string
	Side    string
}

func (e *OrderError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s order failed (ID: %s): %s (%s)", e.Side, e.OrderID, e.Message, e.Code)
	}
	return fmt.Sprintf("%s order failed: %s (%s)", e.Side, e.Message, e.Code)
}

// ErrNotFound is returned by store lookups and client gets when the resource
// does not exist.
var ErrNotFound = errors.New("not found")

// IsDuplicateKey reports whether err represents a unique-constraint violation
// on an idempotency key, which callers treat as success for the order
// already persisted.
func IsDuplicateKey(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return errors.Is(se.Err, ErrDuplicateIdempotencyKey)
	}
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// ErrDuplicateIdempotencyKey is the sentinel a storage implementation wraps
// when an INSERT collides on the orders.idempotency_key unique index.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
