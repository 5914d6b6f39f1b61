package models

import "time"

type EntryKind string

const (
	KindCharge EntryKind = "CHARGE"
	KindUse    EntryKind = "USE"
)

// UserBalance is the current point balance of one user. Records are
// treated as immutable snapshots: every mutation produces a new value.
type UserBalance struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry records one accepted charge or use. Entries are never
// updated or deleted after creation.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      EntryKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}
