package denials

import (
	"context"
	"log/slog"
	"sync"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

// AccessDeniedEvent names the single denial channel shared by the whole session.
const AccessDeniedEvent = "tenantgate:access-denied"

// Listener receives every emitted denial.
type Listener func(denial *entities.AccessDenied)

type routeKey struct{}

// WithRoute captures the route (path and search) a request is issued from.
// Denials emitted with this context are tagged with that route.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFrom returns the route captured by WithRoute.
func RouteFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	route, ok := ctx.Value(routeKey{}).(string)
	return route, ok && route != ""
}

type subscription struct {
	id       uint64
	listener Listener
}

// Registry decouples the code that detects a denial from the code that shows it.
// It keeps no history: a denial emitted with no subscriber is dropped.
type Registry struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []subscription

	location func() string
	logger   *slog.Logger
	recorder ports.Recorder
}

// Option is a functional option for the Registry.
type Option func(*Registry)

// WithLocation sets the fallback resolver for the currently active route.
func WithLocation(fn func() string) Option { return func(r *Registry) { r.location = fn } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Registry) { r.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec ports.Recorder) Option { return func(r *Registry) { r.recorder = rec } }

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = application.ResolveLogger(r.logger)
	return r
}

// Subscribe registers listener and returns its de-registration function.
// Callers must unsubscribe when the consuming view goes away.
func (r *Registry) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, subscription{id: id, listener: listener})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

// Emit dispatches denial to every live subscriber, synchronously and in
// subscription order. A denial without a path is first bound to the route the
// request was issued from.
func (r *Registry) Emit(ctx context.Context, denial *entities.AccessDenied) {
	if denial == nil {
		return
	}
	if denial.Path == "" {
		if path := r.resolvePath(ctx); path != "" {
			denial = denial.WithPath(path)
		}
	}

	r.mu.RLock()
	snapshot := append([]subscription(nil), r.listeners...)
	r.mu.RUnlock()

	if r.recorder != nil {
		r.recorder.DenialEmitted(string(denial.Source))
	}
	r.logger.Info("access denial emitted",
		"event", "tenant_session_denial_emitted",
		"module", "identity-access/tenant-session",
		"layer", "application",
		"channel", AccessDeniedEvent,
		"source", string(denial.Source),
		"path", denial.Path,
		"request_id", denial.RequestID,
		"service", denial.Service,
		"subscriber_count", len(snapshot),
	)

	for _, sub := range snapshot {
		r.dispatch(sub, denial)
	}
}

// Report normalizes err and emits it when it is a denial. It returns the
// emitted denial, or nil when err is not 403-shaped.
func (r *Registry) Report(ctx context.Context, err error, fallback entities.Fallback) *entities.AccessDenied {
	denial := entities.Normalize(err, fallback)
	if denial == nil {
		return nil
	}
	if denial.Path == "" {
		if path := r.resolvePath(ctx); path != "" {
			denial = denial.WithPath(path)
		}
	}
	r.Emit(ctx, denial)
	return denial
}

func (r *Registry) resolvePath(ctx context.Context) string {
	if route, ok := RouteFrom(ctx); ok {
		return route
	}
	if r.location != nil {
		return r.location()
	}
	return ""
}

func (r *Registry) dispatch(sub subscription, denial *entities.AccessDenied) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("access denial listener panicked",
				"event", "tenant_session_denial_listener_panicked",
				"module", "identity-access/tenant-session",
				"layer", "application",
				"subscription_id", sub.id,
				"panic", recovered,
			)
		}
	}()
	sub.listener(denial)
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := make([]subscription, 0, len(r.listeners))
	for _, item := range r.listeners {
		if item.id != id {
			filtered = append(filtered, item)
		}
	}
	r.listeners = filtered
}
