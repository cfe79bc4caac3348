package domain

import (
	"errors"
	"fmt"
)

// ErrServiceNotFound is returned by directory stores when a name is not
// registered.
var ErrServiceNotFound = errors.New("service not found")

// ErrNoLocalHandler is returned by local dispatch tables when no handler
// is mounted for a service. The proxy treats it as a routing failure, not
// a business error.
var ErrNoLocalHandler = errors.New("no local handler mounted")

// DisabledError is surfaced to callers that dispatch to a disabled
// service. No transport or handler is attempted.
type DisabledError struct {
	Name string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("service %q is disabled", e.Name)
}

// UnavailableError is surfaced when every permitted delivery attempt
// failed at the transport or dispatch level.
type UnavailableError struct {
	Name string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("service %q unavailable: %v", e.Name, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// BusinessError wraps an error raised by the target service itself. It is
// opaque to the routing subsystem and always passes through unmodified.
type BusinessError struct {
	Name string
	Err  error
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("service %q: %v", e.Name, e.Err)
}

func (e *BusinessError) Unwrap() error { return e.Err }

// IsRoutingError reports whether err is one of the shapes this subsystem
// is allowed to surface besides pass-through business errors.
func IsRoutingError(err error) bool {
	var de *DisabledError
	var ue *UnavailableError
	return errors.As(err, &de) || errors.As(err, &ue)
}
