package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the application layer can translate them into domain errors:
//   - ErrNotFound: the record does not exist
//   - ErrDuplicate: a uniqueness constraint rejected the write
//   - ErrConflict: a conditional write matched nothing, or the store aborted
//     the transaction (serialization failure, deadlock, write conflict)
//   - ErrUnavailable: the store could not be reached in time
//   - ErrInvalidState: the record's current state forbids the change
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}
