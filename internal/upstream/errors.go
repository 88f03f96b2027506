package upstream

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means a required credential is absent. The call was never
// attempted. Callers must be able to tell this apart from an empty result.
var ErrNotConfigured = errors.New("historical data provider not configured")

// errNotFound marks a provider 404. It never escapes a gateway: "no stations
// here" and "no data this period" are expected steady-state outcomes, so the
// gateways absorb it into an empty result set.
var errNotFound = errors.New("not found")

// AuthError means the provider rejected the configured credentials.
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected credentials (401)", e.Provider)
}

// UpstreamError is any other non-2xx provider response, with status and body
// preserved for diagnostics.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// InputError means the caller supplied missing or invalid parameters.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}
