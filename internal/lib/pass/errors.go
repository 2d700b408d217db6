package pass

import "errors"

var (
	ErrUnauthorized    = errors.New("caller is not the pass admin")
	ErrInvalidAmount   = errors.New("points amount must be positive")
	ErrAlreadyOptedIn  = errors.New("account already holds a pass")
	ErrNoSuchAccount   = errors.New("account has not opted in to the pass")
	ErrThresholdNotMet = errors.New("points balance below claimed threshold")
	ErrOverflow        = errors.New("points addition would overflow")
)
