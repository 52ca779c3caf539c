package httptransport

import "time"

// Upstream tenant API wire shapes.

type SwitchTenantRequest struct {
	Slug string `json:"slug"`
}

type ActiveTenantDTO struct {
	TenantID    string `json:"tenant_id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	BaseRole    string `json:"base_role,omitempty"`
}

// SwitchTenantResponse is the tenant API answer to a successful switch.
type SwitchTenantResponse struct {
	ActiveTenant ActiveTenantDTO `json:"active_tenant"`
	RedirectTo   string          `json:"redirect_to"`
}

type TenantSummaryDTO struct {
	TenantID    string `json:"tenant_id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	BaseRole    string `json:"base_role"`
}

type SessionTenantsResponse struct {
	Tenants []TenantSummaryDTO `json:"tenants"`
}

type UserDTO struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	DisplayName  string   `json:"display_name"`
	Capabilities []string `json:"capabilities"`
}

type PendingApplicationDTO struct {
	TenantSlug  string    `json:"tenant_slug"`
	DisplayName string    `json:"display_name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type EntryProfileResponse struct {
	User                UserDTO                 `json:"user"`
	Memberships         []TenantSummaryDTO      `json:"memberships"`
	LastTenantSlug      *string                 `json:"last_tenant_slug"`
	PendingApplications []PendingApplicationDTO `json:"pending_applications"`
	ActiveTenant        *ActiveTenantDTO        `json:"active_tenant,omitempty"`
}

// ErrorBody is the failure body returned by the tenant API and by this service.
type ErrorBody struct {
	Code      string         `json:"code"`
	Kind      string         `json:"kind,omitempty"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// BFF response shapes.

type ActionDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

type DenialScreenDTO struct {
	Title              string `json:"title"`
	Reason             string `json:"reason"`
	Source             string `json:"source"`
	Path               string `json:"path"`
	RequestID          string `json:"request_id,omitempty"`
	Service            string `json:"service,omitempty"`
	Tenant             string `json:"tenant,omitempty"`
	RequiredPermission string `json:"required_permission,omitempty"`
}

// ViewResponse is the render result of a route.
type ViewResponse struct {
	Kind     string           `json:"kind"`
	Location string           `json:"location,omitempty"`
	Message  string           `json:"message,omitempty"`
	Slug     string           `json:"slug,omitempty"`
	Actions  []ActionDTO      `json:"actions,omitempty"`
	Denial   *DenialScreenDTO `json:"denial,omitempty"`
}

type SessionResponse struct {
	SessionID        string             `json:"session_id"`
	UserID           string             `json:"user_id,omitempty"`
	State            string             `json:"state"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	ActiveTenant     *ActiveTenantDTO   `json:"active_tenant,omitempty"`
	AvailableTenants []TenantSummaryDTO `json:"available_tenants"`
}

type RefreshTenantsResponse struct {
	Tenants []TenantSummaryDTO `json:"tenants"`
}

type HydrateResponse struct {
	User                UserDTO                 `json:"user"`
	LastTenantSlug      string                  `json:"last_tenant_slug,omitempty"`
	PendingApplications []PendingApplicationDTO `json:"pending_applications"`
	Session             SessionResponse         `json:"session"`
}

// ReportDenialRequest carries a failed data fetch observed by the browser.
type ReportDenialRequest struct {
	Status    int            `json:"status"`
	Code      string         `json:"code,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Route     string         `json:"route"`
}

// ReportDenialResponse tells whether the failure was a denial and whether it
// replaced the content of the route currently shown.
type ReportDenialResponse struct {
	Denied    bool             `json:"denied"`
	Presented bool             `json:"presented"`
	Denial    *DenialScreenDTO `json:"denial,omitempty"`
}

type CopyResponse struct {
	Text   string `json:"text"`
	Copied bool   `json:"copied"`
}

// ErrorResponse is the BFF error shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
