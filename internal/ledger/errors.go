package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be > 0")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
