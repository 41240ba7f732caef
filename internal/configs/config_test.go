package configs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/protection"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	config, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Protection.PayloadAlgorithm != protection.DefaultPayloadAlgorithm {
		t.Errorf("Expected default payload algorithm, got %q", config.Protection.PayloadAlgorithm)
	}
	if config.Protection.RSABits != 2048 {
		t.Errorf("Expected 2048 bits, got %d", config.Protection.RSABits)
	}
	if config.Output.Indent != 2 {
		t.Errorf("Expected indent 2, got %d", config.Output.Indent)
	}
	if !strings.HasSuffix(config.Keys.PrivateKey, filepath.Join("confseal", "keys", "confseal.pem")) {
		t.Errorf("Unexpected private key default %q", config.Keys.PrivateKey)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	config := Default()
	config.Keys.PublicKey = "/keys/web.pub"
	config.Keys.PrivateKey = "/keys/web.pem"
	config.Protection.PayloadAlgorithm = protection.AlgorithmAES256CBC
	config.Protection.RSABits = 4096
	config.Output.Indent = 4
	config.Audit.Disabled = true

	if err := Save(path, config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *config {
		t.Errorf("Round trip mismatch:\n got: %+v\nwant: %+v", loaded, config)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[output]
indent = 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Output.Indent != 0 {
		t.Errorf("Expected indent 0, got %d", config.Output.Indent)
	}
	if config.Protection.RSABits != 2048 {
		t.Errorf("Expected default rsa_bits, got %d", config.Protection.RSABits)
	}
}

func TestLoadReportsAllProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[protection]
payload_algorithm = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
rsa_bits = 1024

[output]
indent = 12
colour = "always"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, kerrors.ErrInvalidToolConfig) {
		t.Fatalf("Expected ErrInvalidToolConfig, got: %v", err)
	}
	for _, want := range []string{"output.colour", "payload_algorithm", "rsa_bits", "output.indent"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[keys\npublic_key = "), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, kerrors.ErrInvalidToolConfig) {
		t.Errorf("Expected ErrInvalidToolConfig, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty public key", func(c *Config) { c.Keys.PublicKey = " " }, "keys.public_key"},
		{"empty private key", func(c *Config) { c.Keys.PrivateKey = "" }, "keys.private_key"},
		{"unknown algorithm", func(c *Config) { c.Protection.PayloadAlgorithm = "rot13" }, "payload_algorithm"},
		{"negative indent", func(c *Config) { c.Output.Indent = -1 }, "output.indent"},
		{"audit path required", func(c *Config) { c.Audit.LogPath = "" }, "audit.log_path"},
		{"audit path optional when disabled", func(c *Config) { c.Audit.LogPath = ""; c.Audit.Disabled = true }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestPathHonoursEnvironment(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/confseal/config.toml")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != "/etc/confseal/config.toml" {
		t.Errorf("Expected env override, got %q", path)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/keys/a.pem"); got != filepath.Join(home, "keys", "a.pem") {
		t.Errorf("ExpandHome expanded to %q", got)
	}
	if got := ExpandHome("/abs/a.pem"); got != "/abs/a.pem" {
		t.Errorf("ExpandHome changed an absolute path to %q", got)
	}
	if got := ExpandHome("~user/a.pem"); got != "~user/a.pem" {
		t.Errorf("ExpandHome should only expand ~/, got %q", got)
	}
}
