package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceStoreGetUnknownUser(t *testing.T) {
	s := NewBalanceStore()

	b := s.Get("nobody")

	assert.Equal(t, "nobody", b.UserID)
	assert.Equal(t, int64(0), b.Balance)
	assert.True(t, b.UpdatedAt.IsZero())
}

func TestBalanceStorePutReplacesRecord(t *testing.T) {
	s := NewBalanceStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return ts }

	put := s.Put("u1", 42)

	require.Equal(t, int64(42), put.Balance)
	require.Equal(t, ts, put.UpdatedAt)
	assert.Equal(t, put, s.Get("u1"))

	ts2 := ts.Add(time.Minute)
	s.now = func() time.Time { return ts2 }
	put2 := s.Put("u1", 7)

	assert.Equal(t, int64(7), put2.Balance)
	assert.Equal(t, ts2, put2.UpdatedAt)
	assert.Equal(t, put2, s.Get("u1"))
}

func TestBalanceStoreUsersAreIsolated(t *testing.T) {
	s := NewBalanceStore()

	s.Put("u1", 100)
	s.Put("u2", 200)

	assert.Equal(t, int64(100), s.Get("u1").Balance)
	assert.Equal(t, int64(200), s.Get("u2").Balance)
}
