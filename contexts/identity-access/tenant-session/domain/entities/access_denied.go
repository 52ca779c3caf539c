package entities

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
)

// DefaultDenialReason is shown whenever upstream did not provide a usable reason.
const DefaultDenialReason = "You do not have permission to access this page."

type DenialSource string

const (
	DenialSourceAPI    DenialSource = "api"
	DenialSourceClient DenialSource = "client"
)

var serviceNamePattern = regexp.MustCompile(`^[a-z0-9._-]{2,40}$`)

// TenantRef identifies the tenant a denial applies to. Any field may be empty.
type TenantRef struct {
	ID   string
	Slug string
	Name string
}

// AccessDenied is the canonical "active context is not authorized" record.
// Instances are never mutated after construction; WithPath returns a copy.
// Empty strings stand for absent values.
type AccessDenied struct {
	Status             int
	Source             DenialSource
	Reason             string
	Tenant             *TenantRef
	RequestID          string
	RequiredPermission string
	Service            string
	Details            map[string]any
	Path               string
}

func (d *AccessDenied) Error() string {
	return "access denied: " + d.Reason
}

func (d *AccessDenied) Is(target error) bool {
	return target == domainerrors.ErrForbidden
}

// WithPath returns a clone of d bound to path.
func (d *AccessDenied) WithPath(path string) *AccessDenied {
	clone := *d
	if d.Tenant != nil {
		tenant := *d.Tenant
		clone.Tenant = &tenant
	}
	clone.Path = path
	return &clone
}

// Fallback carries caller context used when the raw failure omits a field.
type Fallback struct {
	RequestID          string
	Tenant             *TenantRef
	Reason             string
	Path               string
	Service            string
	RequiredPermission string
	Source             DenialSource
}

// Normalize converts a raw failure into an AccessDenied, or returns nil when
// the failure is not 403-shaped. A canonical *AccessDenied is returned as is.
func Normalize(raw error, fallback Fallback) *AccessDenied {
	if raw == nil {
		return nil
	}

	var existing *AccessDenied
	if errors.As(raw, &existing) {
		return existing
	}

	var apiErr *APIError
	if errors.As(raw, &apiErr) {
		if !apiErr.IsAccessDenial() {
			return nil
		}
		return fromAPIError(apiErr, fallback)
	}

	if errors.Is(raw, domainerrors.ErrForbidden) {
		return &AccessDenied{
			Status:             http.StatusForbidden,
			Source:             resolveSource(fallback.Source),
			Reason:             resolveReason(wrapperMessage(raw, domainerrors.ErrForbidden), fallback.Reason),
			Tenant:             copyTenant(fallback.Tenant),
			RequestID:          strings.TrimSpace(fallback.RequestID),
			RequiredPermission: strings.TrimSpace(fallback.RequiredPermission),
			Service:            SanitizeService(fallback.Service),
			Path:               fallback.Path,
		}
	}
	return nil
}

func fromAPIError(apiErr *APIError, fallback Fallback) *AccessDenied {
	details := apiErr.Details

	requestID := strings.TrimSpace(apiErr.RequestID)
	if requestID == "" {
		requestID = firstString(details, []string{"error", "request_id"}, []string{"request_id"})
	}
	if requestID == "" {
		requestID = strings.TrimSpace(fallback.RequestID)
	}

	service := ""
	for _, candidate := range []any{
		lookup(details, "error", "service"),
		lookup(details, "error", "upstream"),
		lookup(details, "service"),
		lookup(details, "upstream"),
		fallback.Service,
	} {
		if value := SanitizeService(candidate); value != "" {
			service = value
			break
		}
	}

	permission := firstString(details, []string{"error", "required_permission"}, []string{"required_permission"})
	if permission == "" {
		permission = strings.TrimSpace(fallback.RequiredPermission)
	}

	return &AccessDenied{
		Status:             http.StatusForbidden,
		Source:             resolveSource(fallback.Source),
		Reason:             resolveReason(apiErr.Message, fallback.Reason),
		Tenant:             copyTenant(fallback.Tenant),
		RequestID:          requestID,
		RequiredPermission: permission,
		Service:            service,
		Details:            copyDetails(details),
		Path:               fallback.Path,
	}
}

// ClientDenialOptions describes a denial raised by a local capability check.
type ClientDenialOptions struct {
	Reason             string
	Tenant             *TenantRef
	RequiredPermission string
	Service            string
	Path               string
	Details            map[string]any
}

// NewClientDenial builds a pre-emptive denial. It never carries a request id.
func NewClientDenial(options ClientDenialOptions) *AccessDenied {
	return &AccessDenied{
		Status:             http.StatusForbidden,
		Source:             DenialSourceClient,
		Reason:             resolveReason("", options.Reason),
		Tenant:             copyTenant(options.Tenant),
		RequiredPermission: strings.TrimSpace(options.RequiredPermission),
		Service:            SanitizeService(options.Service),
		Details:            copyDetails(options.Details),
		Path:               options.Path,
	}
}

// SanitizeService lowercases a service name and drops anything outside the
// allowed alphabet or length.
func SanitizeService(raw any) string {
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if !serviceNamePattern.MatchString(value) {
		return ""
	}
	return value
}

func resolveSource(source DenialSource) DenialSource {
	if source == DenialSourceClient {
		return DenialSourceClient
	}
	return DenialSourceAPI
}

// resolveReason keeps only the first line so trace text never becomes the reason.
func resolveReason(message string, fallback string) string {
	if line := firstLine(message); line != "" {
		return line
	}
	if line := firstLine(fallback); line != "" {
		return line
	}
	return DefaultDenialReason
}

// wrapperMessage returns the context a wrapping error adds around sentinel,
// or "" when err carries only the sentinel's own text.
func wrapperMessage(err error, sentinel error) string {
	text := strings.TrimSpace(err.Error())
	marker := sentinel.Error()
	switch {
	case text == marker:
		return ""
	case strings.HasSuffix(text, ": "+marker):
		text = strings.TrimSuffix(text, ": "+marker)
	case strings.HasPrefix(text, marker+": "):
		text = strings.TrimPrefix(text, marker+": ")
	}
	return firstLine(text)
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, "\r\n"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return value
}

func lookup(details map[string]any, path ...string) any {
	var current any = details
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[key]
		if !ok {
			return nil
		}
	}
	return current
}

func firstString(details map[string]any, paths ...[]string) string {
	for _, path := range paths {
		if value, ok := lookup(details, path...).(string); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

func copyTenant(tenant *TenantRef) *TenantRef {
	if tenant == nil {
		return nil
	}
	out := *tenant
	return &out
}

func copyDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for key, value := range details {
		out[key] = value
	}
	return out
}
