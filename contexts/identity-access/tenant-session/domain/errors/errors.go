package errors

import "errors"

const (
	CodeForbidden       = "FORBIDDEN"
	CodeTenantForbidden = "TENANT_FORBIDDEN"
	CodeUnauthenticated = "UNAUTHENTICATED"
)

var (
	ErrForbidden             = errors.New("forbidden")
	ErrTenantForbidden       = errors.New("tenant forbidden")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidSlug           = errors.New("invalid tenant slug")
	ErrClipboardUnavailable  = errors.New("clipboard unavailable")
	ErrNoDenial              = errors.New("no access denial is being presented")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
