package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_SmallSnapshotStaysPlain(t *testing.T) {
	s, err := NewAuditStore(nil)
	require.NoError(t, err)

	raw := []byte(`{"id":1,"total":"10.00"}`)
	changes, compressed, algo := s.encode(raw)

	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, string(raw), string(changes))
}

func TestAuditStore_LargeSnapshotRoundTrip(t *testing.T) {
	s, err := NewAuditStore(nil)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]string{"note": strings.Repeat("roll of linen ", 1000)})
	require.NoError(t, err)
	require.Greater(t, len(raw), DefaultCompressThreshold)

	changes, compressed, algo := s.encode(raw)
	require.Equal(t, CompressionZstd, algo)
	assert.Nil(t, changes)
	assert.Less(t, len(compressed), len(raw))

	entry := AuditEntry{ID: 7, ChangesCompressed: compressed, CompressionAlgo: algo}
	require.NoError(t, s.decode(&entry))
	assert.Equal(t, raw, []byte(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditStore_DecodeRejectsGarbage(t *testing.T) {
	s, err := NewAuditStore(nil)
	require.NoError(t, err)

	entry := AuditEntry{ID: 3, ChangesCompressed: []byte("not zstd"), CompressionAlgo: CompressionZstd}
	assert.Error(t, s.decode(&entry))
}
