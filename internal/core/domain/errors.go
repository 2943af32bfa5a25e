package domain

import "errors"

// Routine control-flow failures. Handlers map these onto the wire codes
// below; anything not in this set is treated as an internal fault.
var (
	// ErrInvalidCredentials covers the API key/secret pair. The message is
	// deliberately generic: callers must not learn which half was wrong.
	ErrInvalidCredentials = errors.New("invalid API credentials")

	// ErrUnknownUser and ErrBadCredential stay distinct internally for
	// logging but render identically at the boundary to block username
	// enumeration.
	ErrUnknownUser   = errors.New("unknown user")
	ErrBadCredential = errors.New("credential verification failed")

	ErrUsernameTaken    = errors.New("username already taken")
	ErrCapacityExceeded = errors.New("too many active sessions")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidPolicy    = errors.New("invalid session policy")

	// ErrCorruptCredential means a stored credential form failed to parse.
	// This is never folded into "wrong password"; it is logged loudly.
	ErrCorruptCredential = errors.New("corrupt credential data")

	// ErrStoreUnavailable wraps durable-store and cache faults.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wire error codes. 1-7 are fixed by the v1 protocol; 4 doubles for bad
// passwords so unknown-user and wrong-password are indistinguishable to
// callers.
const (
	CodeInvalidRegistration = 1
	CodeUserExists          = 2
	CodeInvalidLogin        = 3
	CodeLoginFailed         = 4
	CodeTooManySessions     = 6
	CodeUnknownTarget       = 7
	CodeBadAPICredentials   = 8
	CodeStoreUnavailable    = 9
	CodeCorruptCredential   = 10
)

// WireError maps a domain error to its external (code, message) pair.
// The bool reports whether the error belongs to the routine taxonomy.
func WireError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidRegistration, "Invalid User Information!", true
	case errors.Is(err, ErrUsernameTaken):
		return CodeUserExists, "User already exists!", true
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrBadCredential):
		return CodeLoginFailed, "Invalid Login Information", true
	case errors.Is(err, ErrCapacityExceeded):
		return CodeTooManySessions, "User has too many active sessions", true
	case errors.Is(err, ErrInvalidCredentials):
		return CodeBadAPICredentials, "Invalid API Credentials!", true
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable, "Service temporarily unavailable", true
	case errors.Is(err, ErrCorruptCredential):
		return CodeCorruptCredential, "Internal credential error", true
	default:
		return 0, "", false
	}
}
