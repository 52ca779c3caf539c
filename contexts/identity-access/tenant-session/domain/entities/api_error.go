package entities

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
)

// KindForbidden marks a transport failure the backend classified as a denial.
const KindForbidden = "forbidden"

// APIError is the normalized failure shape returned by the tenant API transport.
// Details keeps the decoded upstream error body for diagnostics.
type APIError struct {
	Status    int
	Code      string
	Kind      string
	Message   string
	RequestID string
	Details   map[string]any
	Err       error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	label := strings.TrimSpace(e.Code)
	if label == "" {
		label = http.StatusText(e.Status)
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("tenant api: %d %s", e.Status, label)
	}
	return fmt.Sprintf("tenant api: %d %s: %s", e.Status, label, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is maps the failure onto the module sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case domainerrors.ErrForbidden:
		return e.IsAccessDenial()
	case domainerrors.ErrTenantForbidden:
		return e.IsTenantForbidden()
	case domainerrors.ErrUnauthenticated:
		return e.IsUnauthenticated()
	}
	return false
}

// IsAccessDenial reports whether the failure is 403-shaped.
func (e *APIError) IsAccessDenial() bool {
	return strings.EqualFold(e.Kind, KindForbidden) ||
		e.Status == http.StatusForbidden ||
		strings.EqualFold(e.Code, domainerrors.CodeForbidden)
}

func (e *APIError) IsTenantForbidden() bool {
	return e.Code == domainerrors.CodeTenantForbidden || e.Status == http.StatusForbidden
}

func (e *APIError) IsUnauthenticated() bool {
	return e.Code == domainerrors.CodeUnauthenticated || e.Status == http.StatusUnauthorized
}

// ErrorCode extracts the upstream code from any error carrying an APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// ErrorMessage extracts the upstream message from any error carrying an APIError.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.TrimSpace(apiErr.Message)
	}
	return ""
}
