package session

import "errors"

var (
	// ErrInvalidTransition means the requested operation is not legal from
	// the session's current state. The session is left unchanged.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrSessionExpired means the session is terminated (explicitly or by
	// idle timeout); the caller must re-resolve and re-authenticate.
	ErrSessionExpired = errors.New("session expired")

	// ErrConcurrentSupersession means a newer session for the same user
	// replaced this one, e.g. a second login. Distinct from ErrSessionExpired
	// so callers can tell "you were replaced" from "you timed out".
	ErrConcurrentSupersession = errors.New("session superseded by a newer login")

	// ErrRepositoryUnavailable wraps a door-session persistence failure.
	// Retryable; nothing was committed.
	ErrRepositoryUnavailable = errors.New("door session repository unavailable")

	// ErrUnknownDoor means no door with the requested ID is installed.
	ErrUnknownDoor = errors.New("unknown door")
)

func repoErr(err error) error {
	return errors.Join(ErrRepositoryUnavailable, err)
}
