package entities

import "strings"

// TenantState is the single live state of the session's tenant binding.
type TenantState string

const (
	TenantStateIdle          TenantState = "idle"
	TenantStateLoading       TenantState = "loading"
	TenantStateSwitching     TenantState = "switching"
	TenantStateReady         TenantState = "ready"
	TenantStateForbidden     TenantState = "forbidden"
	TenantStateNoMemberships TenantState = "no-memberships"
	TenantStateError         TenantState = "error"
)

func (s TenantState) Valid() bool {
	switch s {
	case TenantStateIdle,
		TenantStateLoading,
		TenantStateSwitching,
		TenantStateReady,
		TenantStateForbidden,
		TenantStateNoMemberships,
		TenantStateError:
		return true
	default:
		return false
	}
}

// Terminal reports whether a switch attempt has settled in this state.
func (s TenantState) Terminal() bool {
	return s == TenantStateReady || s == TenantStateForbidden || s == TenantStateError
}

// TenantSummary is one membership row held by the session.
type TenantSummary struct {
	TenantID    string
	Slug        string
	DisplayName string
	Status      string
	BaseRole    string
}

// ActiveTenant is the tenant currently bound to the session.
type ActiveTenant struct {
	TenantID    string
	Slug        string
	DisplayName string
	BaseRole    string
}

// UserInfo is the authenticated principal with its tenant-scoped capabilities.
type UserInfo struct {
	UserID       string
	Email        string
	DisplayName  string
	Capabilities []string
}

// Can reports whether the capability was granted for the active tenant.
func (u UserInfo) Can(capability string) bool {
	for _, item := range u.Capabilities {
		if item == capability {
			return true
		}
	}
	return false
}

// DedupeTenants keeps one row per TenantID; later rows win.
func DedupeTenants(items []TenantSummary) []TenantSummary {
	if len(items) == 0 {
		return []TenantSummary{}
	}
	index := make(map[string]int, len(items))
	out := make([]TenantSummary, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.TenantID)
		if key == "" {
			key = "slug:" + item.Slug
		}
		if pos, ok := index[key]; ok {
			out[pos] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

// NormalizeSlug trims and lowercases a URL-derived tenant slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
