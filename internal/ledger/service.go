package ledger

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/baharkarakas/points-ledger/internal/metrics"
	"github.com/baharkarakas/points-ledger/internal/models"
)

// Sink receives accepted mutations after they commit. Sinks are
// best-effort collaborators (postgres archive, event publisher); they
// run outside the critical section and cannot fail or reorder the
// ledger itself.
type Sink interface {
	Record(entry models.HistoryEntry, balance models.UserBalance)
}

// Service is the point ledger: charge, use, balance, history. Every
// mutation runs its whole read-compute-write-append sequence under the
// user's keyed mutex, so mutations on one user are strictly serialized
// while different users proceed fully in parallel.
type Service struct {
	store   *BalanceStore
	history *HistoryLog
	keys    *KeyedMutex
	idem    *cache.Cache // Idempotency-Key -> models.UserBalance (process-local)
	sinks   []Sink
}

func NewService(store *BalanceStore, history *HistoryLog, sinks ...Sink) *Service {
	return &Service{
		store:   store,
		history: history,
		keys:    NewKeyedMutex(),
		idem:    cache.New(24*time.Hour, time.Hour),
		sinks:   sinks,
	}
}

func (s *Service) Charge(userID string, amount int64) (models.UserBalance, error) {
	return s.ChargeIdem(userID, amount, "")
}

// ChargeIdem credits amount points to the user. A repeated
// Idempotency-Key returns the recorded result without re-applying.
func (s *Service) ChargeIdem(userID string, amount int64, idemKey string) (models.UserBalance, error) {
	return s.mutate(userID, amount, models.KindCharge, idemKey)
}

func (s *Service) Use(userID string, amount int64) (models.UserBalance, error) {
	return s.UseIdem(userID, amount, "")
}

// UseIdem spends amount points. Fails with ErrInsufficientBalance and
// leaves balance and history untouched when the user cannot cover it.
func (s *Service) UseIdem(userID string, amount int64, idemKey string) (models.UserBalance, error) {
	return s.mutate(userID, amount, models.KindUse, idemKey)
}

func (s *Service) mutate(userID string, amount int64, kind models.EntryKind, idemKey string) (models.UserBalance, error) {
	if amount <= 0 {
		metrics.OperationsTotal.WithLabelValues(string(kind), "rejected").Inc()
		return models.UserBalance{}, ErrInvalidAmount
	}

	if idemKey != "" {
		if v, ok := s.idem.Get(idemKey); ok {
			return v.(models.UserBalance), nil
		}
	}

	var (
		updated models.UserBalance
		entry   models.HistoryEntry
	)
	err := s.keys.WithLock(userID, func() error {
		cur := s.store.Get(userID)
		next := cur.Balance + amount
		if kind == models.KindUse {
			next = cur.Balance - amount
			if next < 0 {
				return ErrInsufficientBalance
			}
		}
		updated = s.store.Put(userID, next)
		entry = s.history.Append(userID, amount, kind, updated.UpdatedAt)
		return nil
	})
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(string(kind), "rejected").Inc()
		return models.UserBalance{}, err
	}

	if idemKey != "" {
		s.idem.Set(idemKey, updated, cache.DefaultExpiration)
	}
	for _, snk := range s.sinks {
		snk.Record(entry, updated)
	}
	metrics.OperationsTotal.WithLabelValues(string(kind), "accepted").Inc()
	return updated, nil
}

// Balance reads the current record without taking the keyed mutex; the
// store's whole-record replacement makes the read atomic on its own.
func (s *Service) Balance(userID string) models.UserBalance {
	return s.store.Get(userID)
}

func (s *Service) History(userID string) []models.HistoryEntry {
	return s.history.ListByUser(userID)
}
