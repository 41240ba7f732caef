package workflows

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/confseal/internal/configs"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// ConfigPath overrides the tool config location.
	ConfigPath string

	// FilePatterns selects config files to scan for plaintext sections.
	// Empty means the base directory.
	FilePatterns []string

	BaseDir string
}

// doctorState is shared between checks so each file is read once.
type doctorState struct {
	configPath string
	config     *configs.Config
	configErr  error

	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

// Doctor runs health checks on the tool config, the key pair and the
// config files under BaseDir.
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	state := &doctorState{configPath: opts.ConfigPath}
	if state.configPath == "" {
		p, err := configs.Path()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
		state.configPath = p
	}
	state.config, state.configErr = configs.Load(state.configPath)
	if state.configErr != nil {
		state.config = configs.Default()
	}

	checks := []func(*doctorState) CheckResult{
		checkToolConfig,
		checkPublicKey,
		checkPrivateKey,
		checkPrivateKeyPermissions,
		checkKeyPairMatches,
		checkAuditLog,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(state))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results = append(results, checkPlaintextSections(ctx, opts))

	summary := calculateDoctorSummary(results)

	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkToolConfig(s *doctorState) CheckResult {
	if s.configErr != nil {
		return CheckResult{
			Name:       "Tool configuration",
			Status:     CheckError,
			Message:    s.configErr.Error(),
			Suggestion: fmt.Sprintf("Fix %s or run 'confseal config init --force'", s.configPath),
		}
	}
	if _, err := os.Stat(s.configPath); errors.Is(err, os.ErrNotExist) {
		return CheckResult{
			Name:       "Tool configuration",
			Status:     CheckWarning,
			Message:    "No config file, using defaults",
			Suggestion: "Run 'confseal config init' to write a config file",
		}
	}
	return CheckResult{
		Name:    "Tool configuration",
		Status:  CheckPass,
		Message: fmt.Sprintf("Config file is valid (%s)", s.configPath),
	}
}

func checkPublicKey(s *doctorState) CheckResult {
	path := s.config.Keys.PublicKey
	pub, err := keys.LoadPublicKey(path)
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return CheckResult{
			Name:       "Public key",
			Status:     CheckError,
			Message:    fmt.Sprintf("Public key not found at %s", path),
			Suggestion: "Run 'confseal keygen' to create a key pair",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       "Public key",
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Point keys.public_key at a PEM or ssh-rsa public key",
		}
	}
	s.public = pub
	return CheckResult{
		Name:    "Public key",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d-bit RSA public key", pub.N.BitLen()),
	}
}

func checkPrivateKey(s *doctorState) CheckResult {
	path := s.config.Keys.PrivateKey
	priv, err := keys.LoadPrivateKey(path, nil)
	switch {
	case errors.Is(err, kerrors.ErrKeyNotFound):
		return CheckResult{
			Name:       "Private key",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Private key not found at %s", path),
			Suggestion: "Copy the private key to this machine before running 'confseal unprotect'",
		}
	case errors.Is(err, kerrors.ErrPassphraseRequired):
		return CheckResult{
			Name:    "Private key",
			Status:  CheckPass,
			Message: "Private key is passphrase protected",
		}
	case err != nil:
		return CheckResult{
			Name:       "Private key",
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Point keys.private_key at a PKCS#1, PKCS#8 or OpenSSH RSA key",
		}
	}
	s.private = priv
	return CheckResult{
		Name:    "Private key",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d-bit RSA private key", priv.N.BitLen()),
	}
}

func checkPrivateKeyPermissions(s *doctorState) CheckResult {
	path := s.config.Keys.PrivateKey
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:    "Private key permissions",
			Status:  CheckPass,
			Message: "Private key not present (skipping permissions check)",
		}
	}

	mode, ok := keys.CheckPrivateKeyPermissions(path)
	if !ok {
		return CheckResult{
			Name:       "Private key permissions",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Private key has insecure permissions (%04o)", mode),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", path),
		}
	}
	return CheckResult{
		Name:    "Private key permissions",
		Status:  CheckPass,
		Message: fmt.Sprintf("Private key is only readable by its owner (%04o)", mode),
	}
}

func checkKeyPairMatches(s *doctorState) CheckResult {
	if s.public == nil || s.private == nil {
		return CheckResult{
			Name:    "Key pair",
			Status:  CheckPass,
			Message: "Skipped, both keys must be readable",
		}
	}
	if !s.public.Equal(&s.private.PublicKey) {
		return CheckResult{
			Name:       "Key pair",
			Status:     CheckError,
			Message:    "Public key does not belong to the private key",
			Suggestion: "Sections protected with this public key cannot be unprotected with this private key",
		}
	}
	return CheckResult{
		Name:    "Key pair",
		Status:  CheckPass,
		Message: "Public and private keys match",
	}
}

func checkAuditLog(s *doctorState) CheckResult {
	if s.config.Audit.Disabled {
		return CheckResult{
			Name:    "Audit log",
			Status:  CheckWarning,
			Message: "Audit logging is disabled",
		}
	}

	dir := filepath.Dir(s.config.Audit.LogPath)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				break
			}
			if info.Mode().Perm()&0200 == 0 {
				break
			}
			return CheckResult{
				Name:    "Audit log",
				Status:  CheckPass,
				Message: fmt.Sprintf("Audit log is writable (%s)", s.config.Audit.LogPath),
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return CheckResult{
		Name:       "Audit log",
		Status:     CheckWarning,
		Message:    fmt.Sprintf("Audit log location is not writable (%s)", s.config.Audit.LogPath),
		Suggestion: "Set audit.log_path to a writable location",
	}
}

// checkPlaintextSections looks for appSettings or connectionStrings left in
// plaintext.
func checkPlaintextSections(ctx context.Context, opts DoctorOptions) CheckResult {
	status, err := Status(ctx, StatusOptions{FilePatterns: opts.FilePatterns, BaseDir: opts.BaseDir})
	if errors.Is(err, kerrors.ErrNoFilesFound) {
		return CheckResult{
			Name:    "Plaintext sections",
			Status:  CheckPass,
			Message: "No config files found",
		}
	}
	if err != nil {
		return CheckResult{
			Name:    "Plaintext sections",
			Status:  CheckError,
			Message: fmt.Sprintf("Failed to scan config files: %v", err),
		}
	}

	var exposed []string
	for _, file := range status.Files {
		for _, section := range file.Sections {
			if section.Protected {
				continue
			}
			for _, name := range DefaultSections {
				if section.Name == name {
					rel, relErr := filepath.Rel(status.BaseDir, file.Path)
					if relErr != nil {
						rel = file.Path
					}
					exposed = append(exposed, rel+":"+name)
				}
			}
		}
	}

	if len(exposed) > 0 {
		return CheckResult{
			Name:       "Plaintext sections",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d sensitive section(s) in plaintext: %s", len(exposed), strings.Join(exposed, ", ")),
			Suggestion: "Run 'confseal protect' on these files",
		}
	}
	return CheckResult{
		Name:    "Plaintext sections",
		Status:  CheckPass,
		Message: fmt.Sprintf("No sensitive sections in plaintext across %d file(s)", len(status.Files)),
	}
}

// calculateDoctorSummary counts checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
