package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/points-ledger/internal/models"
	"github.com/baharkarakas/points-ledger/internal/worker"
)

// Archive mirrors accepted history entries into postgres, write-behind
// through the worker pool. It is an audit copy only: the in-memory
// ledger stays the source of truth and never reads back from here, so
// a failed insert is logged and dropped rather than retried.
type Archive struct {
	pool *pgxpool.Pool
	wp   *worker.Pool
}

// one statement per entry; pgx's extended protocol rejects batched DDL
var schema = []string{
	`CREATE TABLE IF NOT EXISTS point_histories (
		id          bigint PRIMARY KEY,
		user_id     text NOT NULL,
		amount      bigint NOT NULL,
		kind        text NOT NULL,
		balance     bigint NOT NULL,
		recorded_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS point_histories_user_idx ON point_histories(user_id, id)`,
}

func New(ctx context.Context, pool *pgxpool.Pool, wp *worker.Pool) (*Archive, error) {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &Archive{pool: pool, wp: wp}, nil
}

func (a *Archive) Record(entry models.HistoryEntry, balance models.UserBalance) {
	a.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := a.pool.Exec(ctx,
			`INSERT INTO point_histories(id, user_id, amount, kind, balance, recorded_at)
			 VALUES($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (id) DO NOTHING`,
			entry.ID, entry.UserID, entry.Amount, string(entry.Kind), balance.Balance, entry.Timestamp,
		)
		if err != nil {
			slog.Error("archive insert", "err", err, "entry_id", entry.ID)
		}
	})
}
