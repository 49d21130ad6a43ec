package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/idempotency"
)

func TestDecide(t *testing.T) {
	fp := idempotency.Fingerprint{UserID: 1, Operation: "POST /api/v1/sales", RequestHash: "abc"}

	t.Run("no record", func(t *testing.T) {
		replay, done, err := decide("k", nil, fp)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Nil(t, replay)
	})

	t.Run("pending record with same request", func(t *testing.T) {
		rec := &idempotencyRecord{Fingerprint: fp, Status: idempotency.StatusPending}
		_, done, err := decide("k", rec, fp)
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("finished record replays with defaults", func(t *testing.T) {
		rec := &idempotencyRecord{
			Fingerprint: fp,
			Status:      idempotency.StatusSuccess,
			Replay:      &idempotency.Replay{Body: []byte(`{"id":5}`)},
		}
		replay, done, err := decide("k", rec, fp)
		require.NoError(t, err)
		require.True(t, done)
		assert.Equal(t, 200, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.JSONEq(t, `{"id":5}`, string(replay.Body))
	})

	t.Run("different request is a conflict", func(t *testing.T) {
		rec := &idempotencyRecord{Fingerprint: fp, Status: idempotency.StatusSuccess}
		other := fp
		other.RequestHash = "def"

		_, _, err := decide("k", rec, other)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.HTTPStatus)
	})
}
