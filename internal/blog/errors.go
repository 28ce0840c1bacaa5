package blog

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Handlers map these onto HTTP
// statuses; callers test with errors.Is. Causes from upstream services are
// wrapped into ErrUpstream and logged, never surfaced verbatim to clients.
var (
	// ErrUnauthenticated means no active session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrEmailUnverified means a session exists but the email is unverified.
	ErrEmailUnverified = errors.New("email not verified")
	// ErrValidation means a required field is empty or invalid. Raised before
	// any network call.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden means the action was attempted by a non-owner.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a slug or id did not resolve to a document.
	ErrNotFound = errors.New("not found")
	// ErrUpstream means an identity/database/image-service call failed.
	ErrUpstream = errors.New("upstream service failure")
)

// Validationf wraps ErrValidation with a field-specific message.
func Validationf(format string, v ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, v...)...)
}

// Upstreamf wraps ErrUpstream with context about the failed call.
func Upstreamf(format string, v ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUpstream}, v...)...)
}

// PartialFailure reports a batch of per-post updates where some but not all
// succeeded. The operation is idempotent, so retrying it is always safe and
// converges regardless of how many posts were already updated.
type PartialFailure struct {
	Updated int
	Failed  int
	Errs    []error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("partial failure: %d updated, %d failed", e.Updated, e.Failed)
}

// Unwrap lets errors.Is treat a partial failure as an upstream failure.
func (e *PartialFailure) Unwrap() error { return ErrUpstream }
