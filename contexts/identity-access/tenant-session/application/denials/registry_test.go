package denials

import (
	"context"
	"errors"
	"testing"

	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
)

func TestEmitDispatchesInSubscriptionOrder(t *testing.T) {
	registry := NewRegistry()
	var order []string
	registry.Subscribe(func(*entities.AccessDenied) { order = append(order, "first") })
	registry.Subscribe(func(*entities.AccessDenied) { order = append(order, "second") })

	registry.Emit(context.Background(), entities.NewClientDenial(entities.ClientDenialOptions{Path: "/t/aef/feed"}))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected dispatch order %v", order)
	}
}

func TestEmitBindsRouteCapturedAtRequestTime(t *testing.T) {
	current := "/t/aef/feed"
	registry := NewRegistry(WithLocation(func() string { return current }))

	var received *entities.AccessDenied
	registry.Subscribe(func(denial *entities.AccessDenied) { received = denial })

	ctx := WithRoute(context.Background(), "/t/aef/events?tab=past")
	current = "/t/aef/members"
	original := entities.NewClientDenial(entities.ClientDenialOptions{})
	registry.Emit(ctx, original)

	if received == nil || received.Path != "/t/aef/events?tab=past" {
		t.Fatalf("expected request route, got %+v", received)
	}
	if original.Path != "" {
		t.Fatalf("emit must clone instead of mutating the denial")
	}
}

func TestEmitFallsBackToActiveLocation(t *testing.T) {
	registry := NewRegistry(WithLocation(func() string { return "/t/aef/feed" }))

	var received *entities.AccessDenied
	registry.Subscribe(func(denial *entities.AccessDenied) { received = denial })
	registry.Emit(context.Background(), entities.NewClientDenial(entities.ClientDenialOptions{}))

	if received == nil || received.Path != "/t/aef/feed" {
		t.Fatalf("expected active location, got %+v", received)
	}
}

func TestEmitKeepsExistingPath(t *testing.T) {
	registry := NewRegistry(WithLocation(func() string { return "/elsewhere" }))

	var received *entities.AccessDenied
	registry.Subscribe(func(denial *entities.AccessDenied) { received = denial })
	denial := entities.NewClientDenial(entities.ClientDenialOptions{Path: "/t/aef/events"})
	registry.Emit(WithRoute(context.Background(), "/t/aef/other"), denial)

	if received != denial {
		t.Fatalf("expected the same denial instance")
	}
}

func TestUnsubscribeDuringDispatchUsesSnapshot(t *testing.T) {
	registry := NewRegistry()
	calls := map[string]int{}

	var unsubscribeSecond func()
	registry.Subscribe(func(*entities.AccessDenied) {
		calls["first"]++
		unsubscribeSecond()
	})
	unsubscribeSecond = registry.Subscribe(func(*entities.AccessDenied) { calls["second"]++ })

	denial := entities.NewClientDenial(entities.ClientDenialOptions{Path: "/t/aef/feed"})
	registry.Emit(context.Background(), denial)
	registry.Emit(context.Background(), denial)

	if calls["first"] != 2 {
		t.Fatalf("expected first listener twice, got %d", calls["first"])
	}
	if calls["second"] != 1 {
		t.Fatalf("expected second listener only for the first emit, got %d", calls["second"])
	}
	unsubscribeSecond()
}

func TestEmitWithoutSubscribersIsDropped(t *testing.T) {
	registry := NewRegistry()
	registry.Emit(context.Background(), entities.NewClientDenial(entities.ClientDenialOptions{}))

	var received int
	registry.Subscribe(func(*entities.AccessDenied) { received++ })
	if received != 0 {
		t.Fatalf("registry must not buffer denials")
	}
}

func TestPanickingListenerDoesNotStopDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Subscribe(func(*entities.AccessDenied) { panic("listener bug") })

	var reached bool
	registry.Subscribe(func(*entities.AccessDenied) { reached = true })
	registry.Emit(context.Background(), entities.NewClientDenial(entities.ClientDenialOptions{Path: "/a"}))

	if !reached {
		t.Fatalf("expected remaining listeners to run")
	}
}

func TestReportEmitsOnlyDenials(t *testing.T) {
	registry := NewRegistry()
	var received []*entities.AccessDenied
	registry.Subscribe(func(denial *entities.AccessDenied) { received = append(received, denial) })

	ctx := WithRoute(context.Background(), "/t/aef/events")
	if got := registry.Report(ctx, &entities.APIError{Status: 404}, entities.Fallback{}); got != nil {
		t.Fatalf("expected nil for 404")
	}
	if got := registry.Report(ctx, errors.New("timeout"), entities.Fallback{}); got != nil {
		t.Fatalf("expected nil for generic error")
	}

	got := registry.Report(ctx, &entities.APIError{Status: 403, RequestID: "req-9"}, entities.Fallback{Service: "events"})
	if got == nil {
		t.Fatalf("expected denial")
	}
	if len(received) != 1 || received[0].Path != "/t/aef/events" || received[0].RequestID != "req-9" {
		t.Fatalf("unexpected received denials %+v", received)
	}
}
