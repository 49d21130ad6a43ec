// Package idempotency defines the contract behind the Idempotency-Key
// header: the first request with a key runs, concurrent duplicates are
// rejected and later duplicates replay the stored response.
package idempotency

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Replay is a stored HTTP response.
type Replay struct {
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Store keeps idempotency keys.
type Store interface {
	// AcquireKey returns (nil, nil) when the caller now owns the key, a
	// Replay when the operation already finished, or an error when the key
	// is in flight or was used for a different request.
	AcquireKey(ctx context.Context, key string, userID id.ID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// Fingerprint identifies the request a key was first used with.
type Fingerprint struct {
	UserID      id.ID  `json:"userId"`
	Operation   string `json:"operation"`
	RequestHash string `json:"requestHash"`
}

// CheckReuse rejects a key presented with a different request than the one
// it was first used with.
func CheckReuse(key string, stored, incoming Fingerprint) error {
	if stored == incoming {
		return nil
	}
	return apperror.NewConflict("idempotency key reused for a different request").
		WithDetail("idempotency_key", key).
		WithDetail("stored_operation", stored.Operation).
		WithDetail("request_operation", incoming.Operation)
}

// NormalizeReplay fills defaults for records stored without status or
// content type.
func NormalizeReplay(r *Replay) *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = 200
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}
