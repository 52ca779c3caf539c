package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"tenantgate/contexts/identity-access/tenant-session/adapters/memory"
	"tenantgate/contexts/identity-access/tenant-session/ports"

	"github.com/fatih/color"
)

func runCLI(t *testing.T, backend *memory.Backend, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Setenv("TENANTCTL_CONFIG_DIR", t.TempDir())
	t.Setenv("TENANTCTL_SERVER", "http://api.test")
	t.Setenv("TENANTCTL_SESSION", "sess-1")

	originalAPI := newTenantAPI
	newTenantAPI = func(string, string, string, *slog.Logger) ports.TenantAPI { return backend }
	t.Cleanup(func() {
		newTenantAPI = originalAPI
		outputFormat = "table"
		serverFlag = ""
		sessionFlag = ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestWhoamiPrintsUser(t *testing.T) {
	out, err := runCLI(t, memory.NewBackend(), "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "Member One <member@example.com>") || !strings.Contains(out, "user-1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTenantsJSON(t *testing.T) {
	out, err := runCLI(t, memory.NewBackend(), "tenants", "-o", "json")
	if err != nil {
		t.Fatalf("tenants: %v", err)
	}
	var tenants []map[string]any
	if err := json.Unmarshal([]byte(out), &tenants); err != nil {
		t.Fatalf("decode: %v output=%s", err, out)
	}
	if len(tenants) != 1 || tenants[0]["slug"] != "aef" {
		t.Fatalf("unexpected tenants %v", tenants)
	}
}

func TestSwitchRendersReady(t *testing.T) {
	backend := memory.NewBackend()
	out, err := runCLI(t, backend, "switch", "aef")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if !strings.Contains(out, "READY tenant aef is active") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if backend.SwitchCalls("aef") != 1 {
		t.Fatalf("expected one switch call")
	}
}

func TestSwitchForbiddenFails(t *testing.T) {
	out, err := runCLI(t, memory.NewBackend(), "switch", "restricted")
	if err == nil {
		t.Fatalf("expected forbidden switch to fail")
	}
	if !strings.Contains(out, "FORBIDDEN Access denied to this tenant") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestOpenRejectsRelativeRoute(t *testing.T) {
	if _, err := runCLI(t, memory.NewBackend(), "open", "tenants"); err == nil {
		t.Fatalf("expected relative route to be rejected")
	}
}

func TestExplainPrintsDenialAndSupportMessage(t *testing.T) {
	out, err := runCLI(t, memory.NewBackend(), "explain", "/t/aef/events",
		"--message", "Missing events.read",
		"--request-id", "req-42",
		"--service", "voting",
	)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	for _, want := range []string{"ACCESS DENIED", "Reason: Missing events.read", "Request ID: req-42", "Service: voting", "Support message:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestExpiredSessionExplainsLogin(t *testing.T) {
	backend := memory.NewBackend()
	backend.SignOut()
	_, err := runCLI(t, backend, "whoami")
	if err == nil || !strings.Contains(err.Error(), "tenantctl login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}
