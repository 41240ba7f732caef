// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up a project directory
// with config files, a tool config and a key pair, and for running the CLI
// with captured output.
package shared

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PolarWolf314/confseal/cmd"
	"github.com/PolarWolf314/confseal/internal/configs"
	"github.com/PolarWolf314/confseal/internal/workflows"
)

// WebConfig is a typical ASP.NET web.config with both sensitive sections.
const WebConfig = `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <appSettings>
    <add key="apiKey" value="s3cr3t-api-key"/>
    <add key="retries" value="3"/>
  </appSettings>
  <connectionStrings>
    <add name="main" connectionString="Server=db;Password=hunter2" providerName="System.Data.SqlClient"/>
  </connectionStrings>
  <system.web>
    <compilation debug="false"/>
  </system.web>
</configuration>
`

// AppConfig is a console app config with only appSettings.
const AppConfig = `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <appSettings>
    <add key="queue" value="orders"/>
  </appSettings>
</configuration>
`

var (
	keyPairOnce sync.Once
	keyPairDir  string
	keyPairErr  error
)

// Env describes a prepared test environment.
type Env struct {
	// ProjectDir is the working directory holding the config files.
	ProjectDir string

	ConfigPath     string
	AuditLogPath   string
	PrivateKeyPath string
	PublicKeyPath  string
}

// TestKeyPair returns a key pair generated once per test binary.
func TestKeyPair(t *testing.T) (privatePath, publicPath string) {
	t.Helper()
	keyPairOnce.Do(func() {
		dir, err := os.MkdirTemp("", "confseal-integration-keys-*")
		if err != nil {
			keyPairErr = err
			return
		}
		keyPairDir = dir
		_, keyPairErr = workflows.Keygen(context.Background(), workflows.KeygenOptions{
			PrivateKeyPath: filepath.Join(dir, "confseal.pem"),
			PublicKeyPath:  filepath.Join(dir, "confseal.pub"),
		})
	})
	if keyPairErr != nil {
		t.Fatalf("Failed to generate key pair: %v", keyPairErr)
	}
	return filepath.Join(keyPairDir, "confseal.pem"), filepath.Join(keyPairDir, "confseal.pub")
}

// CleanupKeyPair removes the shared key pair. Call it from TestMain.
func CleanupKeyPair() {
	if keyPairDir != "" {
		os.RemoveAll(keyPairDir)
	}
}

// SetupTestEnvironment creates a project directory containing web.config
// and worker/app.config, writes a tool config pointing at the shared key
// pair, and changes into the project directory.
func SetupTestEnvironment(t *testing.T) *Env {
	t.Helper()

	privPath, pubPath := TestKeyPair(t)
	userDir := t.TempDir()
	env := &Env{
		ProjectDir:     t.TempDir(),
		ConfigPath:     filepath.Join(userDir, "config.toml"),
		AuditLogPath:   filepath.Join(userDir, "audit.jsonl"),
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
	}

	WriteFile(t, filepath.Join(env.ProjectDir, "web.config"), WebConfig)
	WriteFile(t, filepath.Join(env.ProjectDir, "worker", "app.config"), AppConfig)

	cfg := configs.Default()
	cfg.Keys.PrivateKey = privPath
	cfg.Keys.PublicKey = pubPath
	cfg.Audit.LogPath = env.AuditLogPath
	if err := configs.Save(env.ConfigPath, cfg); err != nil {
		t.Fatalf("Failed to save tool config: %v", err)
	}

	t.Setenv(configs.EnvConfigPath, env.ConfigPath)
	t.Setenv("NO_COLOR", "1")

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(env.ProjectDir); err != nil {
		t.Fatalf("Failed to change to project directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		cmd.ResetGlobalState()
	})

	// Resolve symlinked temp dirs so paths match os.Getwd().
	if wd, err := os.Getwd(); err == nil {
		env.ProjectDir = wd
	}
	return env
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// CaptureOutput captures both stdout and stderr during function execution.
func CaptureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// RunCLI executes confseal with args and returns the combined output.
func RunCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd.ResetGlobalState()
	root := cmd.GetRootCmd()
	root.SetArgs(args)
	return CaptureOutput(root.Execute)
}

// RunCLIWithStdin executes confseal with stdin replaced by input.
func RunCLIWithStdin(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdin pipe: %v", err)
	}
	if _, err := writer.WriteString(input); err != nil {
		t.Fatalf("Failed to write stdin: %v", err)
	}
	writer.Close()

	originalStdin := os.Stdin
	os.Stdin = reader
	defer func() {
		os.Stdin = originalStdin
		reader.Close()
	}()

	return RunCLI(t, args...)
}

// AssertContains fails the test when output lacks any of the wanted substrings.
func AssertContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}
