package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
	"github.com/PolarWolf314/confseal/internal/protection"
)

const maxIndent = 8

type Config struct {
	Keys       KeysConfig       `toml:"keys" json:"keys"`
	Protection ProtectionConfig `toml:"protection" json:"protection"`
	Output     OutputConfig     `toml:"output" json:"output"`
	Audit      AuditConfig      `toml:"audit" json:"audit"`
}

type KeysConfig struct {
	PublicKey  string `toml:"public_key" json:"public_key"`
	PrivateKey string `toml:"private_key" json:"private_key"`
}

type ProtectionConfig struct {
	PayloadAlgorithm string `toml:"payload_algorithm" json:"payload_algorithm"`
	RSABits          int    `toml:"rsa_bits" json:"rsa_bits"`
}

type OutputConfig struct {
	Indent int `toml:"indent" json:"indent"`
}

type AuditConfig struct {
	LogPath  string `toml:"log_path" json:"log_path"`
	Disabled bool   `toml:"disabled" json:"disabled"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	keyDir := filepath.Join(DataDir(), "keys")
	return &Config{
		Keys: KeysConfig{
			PublicKey:  filepath.Join(keyDir, "confseal.pub"),
			PrivateKey: filepath.Join(keyDir, "confseal.pem"),
		},
		Protection: ProtectionConfig{
			PayloadAlgorithm: protection.DefaultPayloadAlgorithm,
			RSABits:          keys.DefaultBits,
		},
		Output: OutputConfig{Indent: 2},
		Audit:  AuditConfig{LogPath: filepath.Join(DataDir(), "audit.jsonl")},
	}
}

// Load reads the config at path, or at Path() when path is empty. A
// missing file yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
		path = p
	}

	config := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidToolConfig, path, err)
	}

	var result *multierror.Error
	for _, key := range md.Undecoded() {
		result = multierror.Append(result, fmt.Errorf("unknown key %q", key.String()))
	}
	if err := config.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidToolConfig, path, err)
	}

	config.expand()
	return config, nil
}

// Save writes config to path, or to Path() when path is empty.
func Save(path string, config *Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return fmt.Errorf("failed to locate config: %w", err)
		}
		path = p
	}

	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Keys.PublicKey) == "" {
		result = multierror.Append(result, fmt.Errorf("keys.public_key cannot be empty"))
	}
	if strings.TrimSpace(c.Keys.PrivateKey) == "" {
		result = multierror.Append(result, fmt.Errorf("keys.private_key cannot be empty"))
	}
	if _, err := protection.LookupPayloadCipher(c.Protection.PayloadAlgorithm); err != nil {
		result = multierror.Append(result, fmt.Errorf("protection.payload_algorithm: %w", err))
	}
	if c.Protection.RSABits < keys.MinGenerateBits {
		result = multierror.Append(result, fmt.Errorf("protection.rsa_bits must be at least %d, got %d", keys.MinGenerateBits, c.Protection.RSABits))
	}
	if c.Output.Indent < 0 || c.Output.Indent > maxIndent {
		result = multierror.Append(result, fmt.Errorf("output.indent must be between 0 and %d, got %d", maxIndent, c.Output.Indent))
	}
	if !c.Audit.Disabled && strings.TrimSpace(c.Audit.LogPath) == "" {
		result = multierror.Append(result, fmt.Errorf("audit.log_path cannot be empty unless audit.disabled is set"))
	}

	return result.ErrorOrNil()
}

func (c *Config) expand() {
	c.Keys.PublicKey = ExpandHome(c.Keys.PublicKey)
	c.Keys.PrivateKey = ExpandHome(c.Keys.PrivateKey)
	c.Audit.LogPath = ExpandHome(c.Audit.LogPath)
}
