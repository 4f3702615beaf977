package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrEmptyOutcomeSet     = errors.New("event has no outcomes")
	ErrUnknownOutcome      = errors.New("unknown outcome")
	ErrEventNotOpen        = errors.New("event is not open")
	ErrEventNotResolved    = errors.New("event is not resolved")
	ErrMarketFrozen        = errors.New("event has been called, betting is frozen")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCallReversed        = errors.New("call is already reversed")
	ErrNotCreator          = errors.New("only the party creator may do this")
	// ErrInvariantViolation indicates a payout distribution that does not
	// conserve the pool. It should never surface; any settlement that
	// produces it must be aborted in full.
	ErrInvariantViolation = errors.New("payout conservation invariant violated")
)
