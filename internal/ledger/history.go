package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/baharkarakas/points-ledger/internal/models"
)

// HistoryLog is the append-only record of accepted mutations. Entry ids
// come from a snowflake node: unique across all users and monotonically
// increasing, so per-user insertion order is reflected in the ids too.
type HistoryLog struct {
	mu      sync.RWMutex
	entries map[string][]models.HistoryEntry
	node    *snowflake.Node
}

func NewHistoryLog() (*HistoryLog, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	return &HistoryLog{
		entries: make(map[string][]models.HistoryEntry),
		node:    node,
	}, nil
}

func (l *HistoryLog) Append(userID string, amount int64, kind models.EntryKind, ts time.Time) models.HistoryEntry {
	e := models.HistoryEntry{
		ID:        l.node.Generate().Int64(),
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Timestamp: ts,
	}
	l.mu.Lock()
	l.entries[userID] = append(l.entries[userID], e)
	l.mu.Unlock()
	return e
}

// ListByUser returns the user's entries oldest-first. The returned
// slice is a copy; appends after the call are not reflected in it.
func (l *HistoryLog) ListByUser(userID string) []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.HistoryEntry, len(l.entries[userID]))
	copy(out, l.entries[userID])
	return out
}
