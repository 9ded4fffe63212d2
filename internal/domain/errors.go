package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. end date before start date, unknown country code).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrPermissionDenied is returned by a signal provider when access to the
// device calendar or photo library has not been granted. Recoverable: the
// caller can re-prompt for permission and start a new import session.
// Handlers should map this to HTTP 403.
var ErrPermissionDenied = errors.New("permission denied")

// ErrSessionState is returned by the import session when an operation is not
// valid in the session's current state (e.g. committing before the scan has
// finished, or starting a second session while one is still active).
// Handlers should map this to HTTP 409 Conflict.
var ErrSessionState = errors.New("invalid session state")

// ErrCancelled is returned when the user cancels an in-progress scan.
// Partial results are discarded and the session returns to idle.
var ErrCancelled = errors.New("cancelled")
