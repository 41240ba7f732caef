package log

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/PolarWolf314/confseal/internal/audit"
	"github.com/PolarWolf314/confseal/test/integration/shared"
)

func TestMain(m *testing.M) {
	code := m.Run()
	shared.CleanupKeyPair()
	os.Exit(code)
}

func TestLog_NoLogYet(t *testing.T) {
	shared.SetupTestEnvironment(t)

	output, err := shared.RunCLI(t, "log")
	if err != nil {
		t.Fatalf("log should not fail without a log file: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "No audit log found")
}

func TestLog_RecordsOperations(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "."); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}
	if output, err := shared.RunCLI(t, "unprotect", "web.config", "--section", "connectionStrings"); err != nil {
		t.Fatalf("unprotect failed: %v\n%s", err, output)
	}

	entries, err := audit.ReadEntries(env.AuditLogPath)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (2 protect, 1 unprotect), got %d", len(entries))
	}
	if entries[0].OperationID != entries[1].OperationID {
		t.Error("files protected in one run should share an operation ID")
	}
	if entries[2].OperationID == entries[0].OperationID {
		t.Error("separate runs should have separate operation IDs")
	}

	output, err := shared.RunCLI(t, "log", "--operation", "unprotect")
	if err != nil {
		t.Fatalf("log failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "unprotect", "web.config [connectionStrings]")
	if strings.Contains(output, "app.config") {
		t.Errorf("operation filter ignored:\n%s", output)
	}

	output, err = shared.RunCLI(t, "log", "--json", "--reverse", "-n", "1")
	if err != nil {
		t.Fatalf("log --json failed: %v\n%s", err, output)
	}
	var parsed []audit.Entry
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v\n%s", err, output)
	}
	if len(parsed) != 1 || parsed[0].Operation != "unprotect" {
		t.Errorf("unexpected entries: %+v", parsed)
	}
}

func TestLog_InvalidDate(t *testing.T) {
	shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "web.config"); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}

	output, err := shared.RunCLI(t, "log", "--since", "yesterday")
	if err == nil {
		t.Fatalf("expected an invalid date error:\n%s", output)
	}
	shared.AssertContains(t, output, "YYYY-MM-DD")
}

func TestLog_DisabledAuditWritesNothing(t *testing.T) {
	env := shared.SetupTestEnvironment(t)
	shared.WriteFile(t, env.ConfigPath, strings.Join([]string{
		"[keys]",
		`public_key = "` + env.PublicKeyPath + `"`,
		`private_key = "` + env.PrivateKeyPath + `"`,
		"[audit]",
		`log_path = "` + env.AuditLogPath + `"`,
		"disabled = true",
	}, "\n"))

	if output, err := shared.RunCLI(t, "protect", "web.config"); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}
	if _, err := os.Stat(env.AuditLogPath); !os.IsNotExist(err) {
		t.Errorf("audit log written while disabled: %v", err)
	}
}
