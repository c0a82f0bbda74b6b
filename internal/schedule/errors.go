package schedule

import "errors"

// Caller-visible failures. All scheduling operations are all-or-nothing:
// when one of these is returned no state was changed.
var (
	// Validation
	ErrValidation       = errors.New("invalid request")
	ErrUnknownPlayer    = errors.New("player is not on the roster")
	ErrUnknownSlot      = errors.New("unknown time slot")
	ErrUnknownDate      = errors.New("date is not a play day of the season")
	ErrWrongPlayerCount = errors.New("wrong number of players for match type")
	ErrDuplicatePlayer  = errors.New("a player is listed twice")

	// Conflicts
	ErrPlayerUnavailable = errors.New("a player is not available in that hour")
	ErrPlayerBooked      = errors.New("a player is already booked in that hour")
	ErrNoFreeCourt       = errors.New("no free court in that hour")

	// Authorization
	ErrNotAllowed = errors.New("operation not allowed for this player")

	// Lookup
	ErrNoReservation = errors.New("no reservation on that court")
)
