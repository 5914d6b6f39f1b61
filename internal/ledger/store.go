package ledger

import (
	"sync"
	"time"

	"github.com/baharkarakas/points-ledger/internal/models"
)

// BalanceStore holds the current balance per user. Records are stored
// as whole value snapshots and replaced atomically, so a read racing a
// write sees either the old record or the new one, never a torn mix.
type BalanceStore struct {
	records sync.Map // userID -> models.UserBalance
	now     func() time.Time
}

func NewBalanceStore() *BalanceStore { return &BalanceStore{now: time.Now} }

// Get returns the stored record, or a zero-balance record for ids that
// were never mutated. Absence and zero balance are indistinguishable.
func (s *BalanceStore) Get(userID string) models.UserBalance {
	if v, ok := s.records.Load(userID); ok {
		return v.(models.UserBalance)
	}
	return models.UserBalance{UserID: userID}
}

// Put unconditionally replaces the user's record with the given balance
// and a fresh timestamp. Callers mutating a derived value must hold the
// user's keyed mutex around the whole read-compute-put sequence.
func (s *BalanceStore) Put(userID string, balance int64) models.UserBalance {
	b := models.UserBalance{UserID: userID, Balance: balance, UpdatedAt: s.now()}
	s.records.Store(userID, b)
	return b
}
