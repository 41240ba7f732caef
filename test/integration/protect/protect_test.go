package protect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/protection"
	"github.com/PolarWolf314/confseal/test/integration/shared"
)

func TestMain(m *testing.M) {
	code := m.Run()
	shared.CleanupKeyPair()
	os.Exit(code)
}

func TestProtect_DefaultSections(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	output, err := shared.RunCLI(t, "protect", ".")
	if err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "web.config", "<appSettings>", "<connectionStrings>", "2 of 2 file(s) protected", "AES-128-CBC")

	web := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config"))
	if strings.Contains(web, "hunter2") || strings.Contains(web, "s3cr3t-api-key") {
		t.Errorf("plaintext secrets left in web.config:\n%s", web)
	}
	shared.AssertContains(t, web, `protected="true"`, protection.AlgorithmAES128CBC, "<system.web>")

	worker := shared.ReadFile(t, filepath.Join(env.ProjectDir, "worker", "app.config"))
	if strings.Contains(worker, "orders") {
		t.Errorf("plaintext left in worker/app.config:\n%s", worker)
	}
}

func TestProtect_RoundTripRestoresValues(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "web.config", "--algorithm", "tripledes"); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}
	web := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config"))
	shared.AssertContains(t, web, protection.AlgorithmTripleDESCBC)

	output, err := shared.RunCLI(t, "unprotect", "web.config")
	if err != nil {
		t.Fatalf("unprotect failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "1 of 1 file(s) unprotected")

	output, err = shared.RunCLI(t, "settings", "get", "web.config", "apiKey")
	if err != nil {
		t.Fatalf("settings get failed: %v\n%s", err, output)
	}
	if strings.TrimSpace(output) != "s3cr3t-api-key" {
		t.Errorf("apiKey = %q, want s3cr3t-api-key", strings.TrimSpace(output))
	}

	output, err = shared.RunCLI(t, "connections", "get", "web.config", "main")
	if err != nil {
		t.Fatalf("connections get failed: %v\n%s", err, output)
	}
	if strings.TrimSpace(output) != "Server=db;Password=hunter2" {
		t.Errorf("main = %q", strings.TrimSpace(output))
	}
}

func TestProtect_SkipsAlreadyProtected(t *testing.T) {
	shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "web.config", "--section", "appSettings"); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}

	output, err := shared.RunCLI(t, "protect", "web.config")
	if err != nil {
		t.Fatalf("second protect failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "<connectionStrings>", "already protected: appSettings")
}

func TestProtect_DryRunLeavesFiles(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	output, err := shared.RunCLI(t, "protect", "**/*.config", "--dry-run")
	if err != nil {
		t.Fatalf("protect --dry-run failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "[dry-run]", "would be protected")

	if got := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config")); got != shared.WebConfig {
		t.Errorf("web.config changed during dry run:\n%s", got)
	}
	if _, err := os.Stat(env.AuditLogPath); !os.IsNotExist(err) {
		t.Errorf("dry run wrote the audit log: %v", err)
	}
}

func TestProtect_Failures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown algorithm", []string{"protect", "web.config", "--algorithm", "rc4"}, kerrors.ErrUnsupportedAlgorithm.Error()},
		{"key-wrap identifier as payload", []string{"protect", "web.config", "--algorithm", protection.AlgorithmRSAv15}, kerrors.ErrUnsupportedAlgorithm.Error()},
		{"missing section", []string{"protect", "web.config", "--section", "system.net"}, kerrors.ErrSectionNotFound.Error()},
		{"missing file", []string{"protect", "missing.config"}, kerrors.ErrFileNotFound.Error()},
		{"missing public key", []string{"protect", "web.config", "--public-key", "nope.pub"}, kerrors.ErrKeyNotFound.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := shared.SetupTestEnvironment(t)

			output, err := shared.RunCLI(t, tt.args...)
			if err == nil {
				t.Fatalf("expected an error, got output:\n%s", output)
			}
			shared.AssertContains(t, output, "✗", tt.want)

			if got := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config")); got != shared.WebConfig {
				t.Errorf("web.config changed after a failed run:\n%s", got)
			}
		})
	}
}

func TestUnprotect_PrivateKeyFromStdin(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "."); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}

	key := shared.ReadFile(t, env.PrivateKeyPath)
	output, err := shared.RunCLIWithStdin(t, key, "unprotect", "worker/app.config", "--private-key-stdin")
	if err != nil {
		t.Fatalf("unprotect failed: %v\n%s", err, output)
	}
	shared.AssertContains(t, output, "worker/app.config", "<appSettings>")

	worker := shared.ReadFile(t, filepath.Join(env.ProjectDir, "worker", "app.config"))
	shared.AssertContains(t, worker, `value="orders"`)

	web := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config"))
	if strings.Contains(web, "hunter2") {
		t.Error("web.config should still be protected")
	}
}

func TestUnprotect_WrongKeyFails(t *testing.T) {
	env := shared.SetupTestEnvironment(t)

	if output, err := shared.RunCLI(t, "protect", "web.config"); err != nil {
		t.Fatalf("protect failed: %v\n%s", err, output)
	}
	protected := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config"))

	otherDir := t.TempDir()
	otherPriv := filepath.Join(otherDir, "other.pem")
	if output, err := shared.RunCLI(t, "keygen", "--private-key", otherPriv, "--public-key", filepath.Join(otherDir, "other.pub")); err != nil {
		t.Fatalf("keygen failed: %v\n%s", err, output)
	}

	output, err := shared.RunCLI(t, "unprotect", "web.config", "--private-key", otherPriv)
	if err == nil {
		t.Fatalf("expected unprotect with the wrong key to fail:\n%s", output)
	}
	shared.AssertContains(t, output, "different key pair")

	if got := shared.ReadFile(t, filepath.Join(env.ProjectDir, "web.config")); got != protected {
		t.Error("web.config changed after a failed unprotect")
	}
}
