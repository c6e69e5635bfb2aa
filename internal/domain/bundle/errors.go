package bundle

import "errors"

// Registry errors. Mutators wrap one of these so callers can branch with
// errors.Is while logs keep the bundle context.
var (
	ErrIllegalState    = errors.New("illegal install state")
	ErrBundleExists    = errors.New("bundle already exists")
	ErrBundleNotFound  = errors.New("bundle not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrAbilityNotFound = errors.New("ability not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrInvalidDevice   = errors.New("invalid device id")
	ErrPersist         = errors.New("persist failed")
	ErrIDExhausted     = errors.New("bundle id space exhausted")
)
