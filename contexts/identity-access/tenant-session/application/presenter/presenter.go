package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

const (
	DefaultHomePath    = "/"
	DefaultChooserPath = "/tenants"

	DenialTitle      = "Access denied"
	journalTimeout   = 3 * time.Second
	missingRequestID = "unavailable"
)

// Identity names the session a presented denial belongs to.
type Identity struct {
	SessionID string
	UserID    string
}

type Config struct {
	HomePath    string
	ChooserPath string
	Clipboard   ports.Clipboard
	Journal     ports.DenialJournal
	IDs         ports.IDGenerator
	Clock       ports.Clock
	Recorder    ports.Recorder
	Logger      *slog.Logger
	// Identity resolves the session and user for journal records.
	Identity func() Identity
}

// CopyResult reports a clipboard action. When Copied is false the caller
// shows Text for manual copying.
type CopyResult struct {
	Text   string
	Copied bool
}

// Presenter turns the denial of the current route into the access-denied
// screen. It keeps at most one denial, and only while the route that raised
// it is still the rendered route.
type Presenter struct {
	homePath    string
	chooserPath string
	clipboard   ports.Clipboard
	journal     ports.DenialJournal
	ids         ports.IDGenerator
	clock       ports.Clock
	recorder    ports.Recorder
	logger      *slog.Logger
	identity    func() Identity

	mu       sync.Mutex
	route    string
	title    string
	previous string
	denial   *entities.AccessDenied
}

func New(cfg Config) *Presenter {
	homePath := strings.TrimSpace(cfg.HomePath)
	if homePath == "" {
		homePath = DefaultHomePath
	}
	chooserPath := strings.TrimSpace(cfg.ChooserPath)
	if chooserPath == "" {
		chooserPath = DefaultChooserPath
	}
	return &Presenter{
		homePath:    homePath,
		chooserPath: chooserPath,
		clipboard:   cfg.Clipboard,
		journal:     cfg.Journal,
		ids:         cfg.IDs,
		clock:       cfg.Clock,
		recorder:    cfg.Recorder,
		logger:      application.ResolveLogger(cfg.Logger),
		identity:    cfg.Identity,
	}
}

// Navigate records the rendered route (path plus search) and its title. A
// stored denial for another route is cleared.
func (p *Presenter) Navigate(route string, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if route != p.route {
		if p.route != "" {
			p.previous = p.route
		}
		p.route = route
	}
	p.title = strings.TrimSpace(title)
	if p.denial != nil && p.denial.Path != route {
		p.denial = nil
	}
}

// Route returns the currently rendered route.
func (p *Presenter) Route() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.route
}

// Listen is the registry listener. Denials raised for a route the user has
// already left are ignored.
func (p *Presenter) Listen(denial *entities.AccessDenied) {
	if denial == nil {
		return
	}
	p.mu.Lock()
	if denial.Path != p.route {
		current := p.route
		p.mu.Unlock()
		p.logger.Debug("ignoring access denial for inactive route",
			"event", "tenant_session_denial_ignored",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"denial_path", denial.Path,
			"route", current,
		)
		return
	}
	p.denial = denial
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.DenialPresented(string(denial.Source))
	}
	p.record(denial)
}

// Denial returns the denial currently shown, if any.
func (p *Presenter) Denial() *entities.AccessDenied {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.denial
}

// Clear drops the stored denial.
func (p *Presenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denial = nil
}

// Reset forgets the route history and the stored denial.
func (p *Presenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.route = ""
	p.title = ""
	p.previous = ""
	p.denial = nil
}

// Render replaces content with the denial screen while a denial is stored.
// Redirects pass through untouched.
func (p *Presenter) Render(content views.View) views.View {
	if content.Kind == views.KindRedirect {
		return content
	}
	p.mu.Lock()
	denial := p.denial
	previous := p.previous
	p.mu.Unlock()
	if denial == nil {
		return content
	}

	return views.View{
		Kind:    views.KindDenied,
		Slug:    content.Slug,
		Message: p.displayReason(denial),
		Denial:  p.Screen(denial),
		Actions: p.actions(previous),
	}
}

// SupportMessage formats the text a user pastes into a support request.
func (p *Presenter) SupportMessage() (string, error) {
	p.mu.Lock()
	denial := p.denial
	title := p.title
	p.mu.Unlock()
	if denial == nil {
		return "", domainerrors.ErrNoDenial
	}

	location := denial.Path
	if title != "" {
		location = fmt.Sprintf("%s (%s)", title, denial.Path)
	}
	requestID := denial.RequestID
	if requestID == "" {
		requestID = missingRequestID
	}

	lines := []string{
		"Access denied while opening " + location,
		"Reason: " + p.displayReason(denial),
		"Request ID: " + requestID,
	}
	if denial.Service != "" {
		lines = append(lines, "Service: "+denial.Service)
	}
	if tenant := tenantLabel(denial.Tenant); tenant != "" {
		lines = append(lines, "Tenant: "+tenant)
	}
	if denial.RequiredPermission != "" {
		lines = append(lines, "Required permission: "+denial.RequiredPermission)
	}
	return strings.Join(lines, "\n"), nil
}

func (p *Presenter) CopySupportMessage(ctx context.Context) (CopyResult, error) {
	text, err := p.SupportMessage()
	if err != nil {
		return CopyResult{}, err
	}
	return p.copy(ctx, "support_message", text)
}

func (p *Presenter) CopyRequestID(ctx context.Context) (CopyResult, error) {
	denial := p.Denial()
	if denial == nil || denial.RequestID == "" {
		return CopyResult{}, domainerrors.ErrNoDenial
	}
	return p.copy(ctx, "request_id", denial.RequestID)
}

func (p *Presenter) copy(ctx context.Context, kind string, text string) (CopyResult, error) {
	if p.clipboard == nil {
		return CopyResult{Text: text}, nil
	}
	if err := p.clipboard.Copy(ctx, text); err != nil {
		if errors.Is(err, domainerrors.ErrClipboardUnavailable) {
			p.logger.Info("clipboard unavailable, falling back to manual copy",
				"event", "tenant_session_clipboard_fallback",
				"module", "identity-access/tenant-session",
				"layer", "application",
				"kind", kind,
			)
			return CopyResult{Text: text}, nil
		}
		return CopyResult{}, err
	}
	return CopyResult{Text: text, Copied: true}, nil
}

func (p *Presenter) record(denial *entities.AccessDenied) {
	if p.journal == nil || p.ids == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	denialID, err := p.ids.NewID(ctx)
	if err != nil {
		p.logger.Warn("denial id generation failed",
			"event", "tenant_session_denial_journal_failed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	record := ports.DenialRecord{
		DenialID:           denialID,
		Source:             string(denial.Source),
		Reason:             denial.Reason,
		RequestID:          denial.RequestID,
		RequiredPermission: denial.RequiredPermission,
		Service:            denial.Service,
		Path:               denial.Path,
		OccurredAt:         p.now(),
	}
	if denial.Tenant != nil {
		record.TenantID = denial.Tenant.ID
		record.TenantSlug = denial.Tenant.Slug
	}
	if p.identity != nil {
		identity := p.identity()
		record.SessionID = identity.SessionID
		record.UserID = identity.UserID
	}

	if err := p.journal.RecordDenial(ctx, record); err != nil {
		p.logger.Warn("denial journal write failed",
			"event", "tenant_session_denial_journal_failed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"denial_id", denialID,
			"error", err.Error(),
		)
	}
}

func (p *Presenter) now() time.Time {
	if p.clock != nil {
		return p.clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Presenter) displayReason(denial *entities.AccessDenied) string {
	if summary := ReasonSummary(denial.Reason); summary != "" {
		return summary
	}
	return entities.DefaultDenialReason
}

func (p *Presenter) actions(previous string) []views.Action {
	back := previous
	if back == "" {
		back = p.homePath
	}
	return []views.Action{
		{ID: "home", Label: "Go to home", Href: p.homePath},
		{ID: "back", Label: "Go back", Href: back},
		{ID: "switch-tenant", Label: "Switch tenant", Href: p.chooserPath},
	}
}

// Screen builds the bounded-disclosure content shown for denial.
func (p *Presenter) Screen(denial *entities.AccessDenied) *views.DenialScreen {
	if denial == nil {
		return nil
	}
	return &views.DenialScreen{
		Title:              DenialTitle,
		Reason:             p.displayReason(denial),
		Source:             string(denial.Source),
		Path:               denial.Path,
		RequestID:          denial.RequestID,
		Service:            denial.Service,
		Tenant:             tenantLabel(denial.Tenant),
		RequiredPermission: denial.RequiredPermission,
	}
}

func tenantLabel(tenant *entities.TenantRef) string {
	if tenant == nil {
		return ""
	}
	for _, value := range []string{tenant.Name, tenant.Slug, tenant.ID} {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
