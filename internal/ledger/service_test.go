package ledger_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/points-ledger/internal/ledger"
	"github.com/baharkarakas/points-ledger/internal/models"
)

func newService(t *testing.T, sinks ...ledger.Sink) *ledger.Service {
	t.Helper()
	hist, err := ledger.NewHistoryLog()
	require.NoError(t, err)
	return ledger.NewService(ledger.NewBalanceStore(), hist, sinks...)
}

func conservation(t *testing.T, svc *ledger.Service, userID string) {
	t.Helper()
	var sum int64
	for _, e := range svc.History(userID) {
		switch e.Kind {
		case models.KindCharge:
			sum += e.Amount
		case models.KindUse:
			sum -= e.Amount
		}
	}
	assert.Equal(t, svc.Balance(userID).Balance, sum, "history replay must reproduce the balance")
}

func TestChargeAndUseFlow(t *testing.T) {
	svc := newService(t)

	b, err := svc.Charge("u1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Balance)

	b, err = svc.Use("u1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), b.Balance)

	b, err = svc.Charge("u1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(60), b.Balance)

	hist := svc.History("u1")
	require.Len(t, hist, 3)
	assert.Equal(t, models.KindCharge, hist[0].Kind)
	assert.Equal(t, int64(100), hist[0].Amount)
	assert.Equal(t, models.KindUse, hist[1].Kind)
	assert.Equal(t, int64(50), hist[1].Amount)
	assert.Equal(t, models.KindCharge, hist[2].Kind)

	conservation(t, svc, "u1")
}

func TestInvalidAmountRejected(t *testing.T) {
	svc := newService(t)

	cases := []struct {
		name   string
		run    func() (models.UserBalance, error)
	}{
		{"charge zero", func() (models.UserBalance, error) { return svc.Charge("u3", 0) }},
		{"charge negative", func() (models.UserBalance, error) { return svc.Charge("u3", -5) }},
		{"use zero", func() (models.UserBalance, error) { return svc.Use("u3", 0) }},
		{"use negative", func() (models.UserBalance, error) { return svc.Use("u3", -1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		})
	}

	assert.Equal(t, int64(0), svc.Balance("u3").Balance)
	assert.Empty(t, svc.History("u3"))
}

func TestUseRejectionIsNoOp(t *testing.T) {
	svc := newService(t)
	_, err := svc.Charge("u1", 100)
	require.NoError(t, err)
	before := svc.History("u1")

	_, err = svc.Use("u1", 3000)

	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, int64(100), svc.Balance("u1").Balance)
	assert.Equal(t, before, svc.History("u1"))
}

func TestBalanceReadIsIdempotent(t *testing.T) {
	svc := newService(t)
	_, err := svc.Charge("u1", 100)
	require.NoError(t, err)

	first := svc.Balance("u1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, svc.Balance("u1"))
	}
}

func TestConcurrentChargesAreNotLost(t *testing.T) {
	svc := newService(t)

	const n = 100
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, err := svc.Charge("u2", amount)
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, int64(n*(n+1)/2), svc.Balance("u2").Balance)
	assert.Len(t, svc.History("u2"), n)
	conservation(t, svc, "u2")
}

func TestConcurrentChargeUsePairsTwoUsers(t *testing.T) {
	svc := newService(t)

	// Each goroutine charges before it uses, so every use finds cover
	// no matter how operations interleave.
	const pairs = 500
	var wg sync.WaitGroup
	for _, user := range []string{"u4", "u5"} {
		for i := 0; i < pairs; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := svc.Charge(id, 1)
				assert.NoError(t, err)
				_, err = svc.Use(id, 1)
				assert.NoError(t, err)
			}(user)
		}
	}
	wg.Wait()

	for _, user := range []string{"u4", "u5"} {
		assert.Equal(t, int64(0), svc.Balance(user).Balance)
		hist := svc.History(user)
		assert.Len(t, hist, 2*pairs)
		for _, e := range hist {
			assert.Equal(t, user, e.UserID)
		}
		conservation(t, svc, user)
	}
}

func TestIdempotencyKeyReplaysResult(t *testing.T) {
	svc := newService(t)

	first, err := svc.ChargeIdem("u1", 100, "key-1")
	require.NoError(t, err)

	replay, err := svc.ChargeIdem("u1", 100, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first, replay)
	assert.Equal(t, int64(100), svc.Balance("u1").Balance)
	assert.Len(t, svc.History("u1"), 1)
}

type fakeSink struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
}

func (f *fakeSink) Record(entry models.HistoryEntry, _ models.UserBalance) {
	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()
}

func TestSinksSeeAcceptedMutationsOnly(t *testing.T) {
	snk := &fakeSink{}
	svc := newService(t, snk)

	_, err := svc.Charge("u1", 100)
	require.NoError(t, err)
	_, err = svc.Use("u1", 3000)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	_, err = svc.Charge("u1", -1)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	snk.mu.Lock()
	defer snk.mu.Unlock()
	require.Len(t, snk.entries, 1)
	assert.Equal(t, models.KindCharge, snk.entries[0].Kind)
	assert.Equal(t, int64(100), snk.entries[0].Amount)
}
