package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

// inFlightTTL bounds how long a crashed request can block its key.
const inFlightTTL = time.Minute

// idempotencyRecord is the JSON value stored under a key.
type idempotencyRecord struct {
	idempotency.Fingerprint
	Status idempotency.Status  `json:"status"`
	Replay *idempotency.Replay `json:"replay,omitempty"`
}

// IdempotencyStore keeps idempotency records in Redis. A redislock lock
// marks a key as in flight; the record holds the fingerprint and, once
// finished, the response to replay.
type IdempotencyStore struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*redislock.Lock
}

// NewIdempotencyStore creates a Redis idempotency store. Finished records
// live for ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		locker: redislock.New(client),
		ttl:    ttl,
		locks:  make(map[string]*redislock.Lock),
	}
}

func recordKey(key string) string { return keyPrefix + "idem:" + key }
func lockKey(key string) string   { return keyPrefix + "idem-lock:" + key }

// AcquireKey takes the in-flight lock for key unless a finished record can
// be replayed.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key string, userID id.ID, operation, requestHash string) (*idempotency.Replay, error) {
	incoming := idempotency.Fingerprint{UserID: userID, Operation: operation, RequestHash: requestHash}

	rec, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if replay, done, err := decide(key, rec, incoming); done || err != nil {
		return replay, err
	}

	lock, err := s.locker.Obtain(ctx, lockKey(key), inFlightTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain idempotency lock: %w", err)
	}

	// The previous holder may have finished between the read and the lock.
	rec, err = s.load(ctx, key)
	if err != nil {
		_ = lock.Release(ctx)
		return nil, err
	}
	if replay, done, err := decide(key, rec, incoming); done || err != nil {
		_ = lock.Release(ctx)
		return replay, err
	}

	pending := idempotencyRecord{Fingerprint: incoming, Status: idempotency.StatusPending}
	if err := s.save(ctx, key, pending); err != nil {
		_ = lock.Release(ctx)
		return nil, err
	}

	s.mu.Lock()
	s.locks[key] = lock
	s.mu.Unlock()
	return nil, nil
}

// decide applies a stored record to an incoming request. done reports that
// the stored response must be replayed.
func decide(key string, rec *idempotencyRecord, incoming idempotency.Fingerprint) (*idempotency.Replay, bool, error) {
	if rec == nil {
		return nil, false, nil
	}
	if err := idempotency.CheckReuse(key, rec.Fingerprint, incoming); err != nil {
		return nil, false, err
	}
	if rec.Status == idempotency.StatusPending || rec.Replay == nil {
		return nil, false, nil
	}
	return idempotency.NormalizeReplay(rec.Replay), true, nil
}

// CompleteKey stores a successful response.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, idempotency.StatusSuccess, statusCode, contentType, response)
}

// FailKey stores an error response.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, idempotency.StatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status idempotency.Status, statusCode int, contentType string, response any) error {
	s.mu.Lock()
	lock := s.locks[key]
	delete(s.locks, key)
	s.mu.Unlock()
	if lock != nil {
		defer func() { _ = lock.Release(ctx) }()
	}

	rec, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("idempotency key %q has no record", key)
	}

	var body []byte
	if response != nil {
		if body, err = json.Marshal(response); err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
	}
	rec.Status = status
	rec.Replay = &idempotency.Replay{StatusCode: statusCode, ContentType: contentType, Body: body}
	return s.save(ctx, key, *rec)
}

func (s *IdempotencyStore) load(ctx context.Context, key string) (*idempotencyRecord, error) {
	val, err := s.client.Get(ctx, recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency record: %w", err)
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, nil
}

func (s *IdempotencyStore) save(ctx context.Context, key string, rec idempotencyRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, recordKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("write idempotency record: %w", err)
	}
	return nil
}
