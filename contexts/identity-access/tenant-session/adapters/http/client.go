package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	"tenantgate/contexts/identity-access/tenant-session/ports"
	httptransport "tenantgate/contexts/identity-access/tenant-session/transport/http"
)

const (
	switchTenantPath   = "/api/v1/session/switch-tenant"
	sessionTenantsPath = "/api/v1/session/tenants"
	entryProfilePath   = "/api/v1/session/entry"
	profilePath        = "/api/v1/session/profile"

	DefaultSessionCookie = "session"
	RequestIDHeader      = "X-Request-Id"

	maxErrorBody = 64 << 10
)

// Client is the tenant API over HTTP. One client speaks for one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cookieName string
	sessionID  string
	logger     *slog.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) ClientOption { return func(cl *Client) { cl.httpClient = c } }

// WithSession forwards the session cookie on every call.
func WithSession(cookieName string, sessionID string) ClientOption {
	return func(cl *Client) {
		if strings.TrimSpace(cookieName) != "" {
			cl.cookieName = cookieName
		}
		cl.sessionID = sessionID
	}
}

func WithClientLogger(l *slog.Logger) ClientOption { return func(cl *Client) { cl.logger = l } }

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cookieName: DefaultSessionCookie,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = application.ResolveLogger(c.logger)
	return c
}

func (c *Client) SwitchTenant(ctx context.Context, slug string) (ports.SwitchResult, error) {
	var response httptransport.SwitchTenantResponse
	if err := c.do(ctx, http.MethodPost, switchTenantPath, httptransport.SwitchTenantRequest{Slug: slug}, &response); err != nil {
		return ports.SwitchResult{}, err
	}
	return ports.SwitchResult{
		ActiveTenant: activeTenantFromDTO(response.ActiveTenant),
		RedirectHint: response.RedirectTo,
	}, nil
}

func (c *Client) FetchSessionTenants(ctx context.Context) ([]entities.TenantSummary, error) {
	var response httptransport.SessionTenantsResponse
	if err := c.do(ctx, http.MethodGet, sessionTenantsPath, nil, &response); err != nil {
		return nil, err
	}
	return tenantsFromDTO(response.Tenants), nil
}

func (c *Client) FetchEntryProfile(ctx context.Context) (ports.EntryProfile, error) {
	var response httptransport.EntryProfileResponse
	if err := c.do(ctx, http.MethodGet, entryProfilePath, nil, &response); err != nil {
		return ports.EntryProfile{}, err
	}
	profile := ports.EntryProfile{
		User:        userFromDTO(response.User),
		Memberships: tenantsFromDTO(response.Memberships),
	}
	if response.LastTenantSlug != nil {
		profile.LastTenantSlug = *response.LastTenantSlug
	}
	for _, item := range response.PendingApplications {
		profile.PendingApplications = append(profile.PendingApplications, ports.PendingApplication{
			TenantSlug:  item.TenantSlug,
			DisplayName: item.DisplayName,
			SubmittedAt: item.SubmittedAt,
		})
	}
	if response.ActiveTenant != nil && strings.TrimSpace(response.ActiveTenant.Slug) != "" {
		active := activeTenantFromDTO(*response.ActiveTenant)
		profile.ActiveTenant = &active
	}
	return profile, nil
}

func (c *Client) RefreshProfile(ctx context.Context) (entities.UserInfo, error) {
	var response httptransport.UserDTO
	if err := c.do(ctx, http.MethodGet, profilePath, nil, &response); err != nil {
		return entities.UserInfo{}, err
	}
	return userFromDTO(response), nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.sessionID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("tenant api request failed",
			"event", "tenant_api_request_failed",
			"module", "identity-access/tenant-session",
			"layer", "adapter",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return &entities.APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.logger.Info("tenant api returned failure",
			"event", "tenant_api_failure_response",
			"module", "identity-access/tenant-session",
			"layer", "adapter",
			"method", method,
			"path", path,
			"status", apiErr.Status,
			"code", apiErr.Code,
			"request_id", apiErr.RequestID,
		)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &entities.APIError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeAPIError reads either a flat {code,message,request_id,details} body
// or one nested under "error". The decoded body becomes Details when the
// upstream sent no explicit details object.
func decodeAPIError(resp *http.Response) *entities.APIError {
	apiErr := &entities.APIError{
		Status:    resp.StatusCode,
		RequestID: strings.TrimSpace(resp.Header.Get(RequestIDHeader)),
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return apiErr
	}

	source := body
	if nested, ok := body["error"].(map[string]any); ok {
		source = nested
	}
	apiErr.Code = stringField(source, "code")
	apiErr.Kind = stringField(source, "kind")
	apiErr.Message = stringField(source, "message")
	if requestID := stringField(source, "request_id"); requestID != "" {
		apiErr.RequestID = requestID
	}
	if details, ok := body["details"].(map[string]any); ok {
		apiErr.Details = details
	} else {
		apiErr.Details = body
	}
	return apiErr
}

func stringField(values map[string]any, key string) string {
	value, _ := values[key].(string)
	return strings.TrimSpace(value)
}

func activeTenantFromDTO(dto httptransport.ActiveTenantDTO) entities.ActiveTenant {
	return entities.ActiveTenant{
		TenantID:    dto.TenantID,
		Slug:        dto.Slug,
		DisplayName: dto.DisplayName,
		BaseRole:    dto.BaseRole,
	}
}

func tenantsFromDTO(items []httptransport.TenantSummaryDTO) []entities.TenantSummary {
	out := make([]entities.TenantSummary, 0, len(items))
	for _, item := range items {
		out = append(out, entities.TenantSummary{
			TenantID:    item.TenantID,
			Slug:        item.Slug,
			DisplayName: item.DisplayName,
			Status:      item.Status,
			BaseRole:    item.BaseRole,
		})
	}
	return out
}

func userFromDTO(dto httptransport.UserDTO) entities.UserInfo {
	return entities.UserInfo{
		UserID:       dto.UserID,
		Email:        dto.Email,
		DisplayName:  dto.DisplayName,
		Capabilities: append([]string(nil), dto.Capabilities...),
	}
}
