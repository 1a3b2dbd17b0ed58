package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Handlers map these onto HTTP
// status codes; anything that does not match is treated as an internal
// error and never surfaced verbatim.
var (
	// ErrValidation signals bad input shape or value.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden signals a role/ownership failure.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a violated state precondition; callers may
	// retry after refetching state.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientFunds signals a balance check failure.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidState signals an idempotency guard firing, e.g.
	// re-approving a non-pending transaction. Never retried.
	ErrInvalidState = errors.New("invalid state")
)

// Specific conflicts, still matchable as ErrConflict via errors.Is.
var (
	ErrTeamExists         = fmt.Errorf("%w: user already owns a team", ErrConflict)
	ErrAlreadyInTeam      = fmt.Errorf("%w: user already belongs to a team", ErrConflict)
	ErrAlreadyEnrolled    = fmt.Errorf("%w: team already enrolled", ErrConflict)
	ErrTournamentFull     = fmt.Errorf("%w: tournament is full", ErrConflict)
	ErrRegistrationClosed = fmt.Errorf("%w: registration is closed", ErrConflict)
)
