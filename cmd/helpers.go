package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/PolarWolf314/confseal/internal/audit"
	"github.com/PolarWolf314/confseal/internal/configs"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
	"github.com/PolarWolf314/confseal/internal/keys"
	"github.com/PolarWolf314/confseal/internal/protection"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/PolarWolf314/confseal/internal/utils"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Cleared so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadToolConfig loads the config named by --config, $CONFSEAL_CONFIG or the default location.
func loadToolConfig() (*configs.Config, error) {
	Logger.Debugf("Loading tool config (override: %q)", configPath)
	cfg, err := configs.Load(configPath)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Public key: %s, private key: %s", cfg.Keys.PublicKey, cfg.Keys.PrivateKey)
	return cfg, nil
}

// newRecorder returns nil when auditing is disabled; a nil Recorder discards entries.
func newRecorder(cfg *configs.Config) *audit.Recorder {
	if cfg.Audit.Disabled {
		Logger.Debugf("Audit logging disabled")
		return nil
	}
	recorder := audit.NewRecorder(cfg.Audit.LogPath)
	Logger.Debugf("Audit log %s, operation %s", recorder.Path, recorder.OperationID)
	return recorder
}

// resolveAlgorithm accepts a payload cipher identifier or a short name such
// as "aes256", "AES-256-CBC" or "tripledes".
func resolveAlgorithm(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if alg, err := protection.LookupPayloadCipher(name); err == nil {
		return alg.ID, nil
	}
	want := normalizeAlgorithmName(name)
	for _, alg := range protection.Algorithms() {
		if alg.Kind == protection.KindPayload && normalizeAlgorithmName(alg.Name) == want {
			return alg.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q (run 'confseal algorithms' to list them)", kerrors.ErrUnsupportedAlgorithm, name)
}

func normalizeAlgorithmName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	return strings.TrimSuffix(name, "cbc")
}

// algorithmName returns the short registry name for an identifier, or the
// identifier itself when it is unknown.
func algorithmName(id string) string {
	for _, alg := range protection.Algorithms() {
		if alg.ID == id {
			return alg.Name
		}
	}
	return id
}

// passphrasePrompt reads a private key passphrase from the terminal.
func passphrasePrompt(path string) keys.PassphraseFunc {
	return func() ([]byte, error) {
		Logger.Debugf("Prompting for passphrase of %s", path)
		return utils.ReadPassphrase("Enter passphrase for " + path + ": ")
	}
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by the command that returned it.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func reported(err error) error {
	return &reportedError{err: err}
}

// formatError turns a workflow error into a message with a hint.
func formatError(err error) string {
	msg := ui.Error.Sprint("✗") + " " + err.Error()
	switch {
	case errors.Is(err, kerrors.ErrKeyNotFound):
		return msg + "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("confseal keygen") + " or set the key path with " + ui.Flag.Sprint("--public-key") + "/" + ui.Flag.Sprint("--private-key")
	case errors.Is(err, kerrors.ErrKeyExists):
		return msg + "\n" + ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--force") + " to replace the existing key pair"
	case errors.Is(err, kerrors.ErrPaddingOrKeyMismatch):
		return msg + "\n" + ui.Info.Sprint("→") + " The section was protected with a different key pair, or the envelope is corrupted"
	case errors.Is(err, kerrors.ErrUnsupportedAlgorithm):
		return msg + "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("confseal algorithms") + " to list supported ciphers"
	case errors.Is(err, kerrors.ErrSectionProtected):
		return msg + "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("confseal unprotect") + " first"
	case errors.Is(err, kerrors.ErrNoFilesFound), errors.Is(err, kerrors.ErrFileNotFound):
		return msg + "\n" + ui.Info.Sprint("→") + " Pass config files, directories or globs such as " + ui.Code.Sprint("'**/*.config'")
	case errors.Is(err, kerrors.ErrInvalidToolConfig):
		return msg + "\n" + ui.Info.Sprint("→") + " Fix the config file or run " + ui.Code.Sprint("confseal config init --force")
	case errors.Is(err, kerrors.ErrPassphraseRequired):
		return msg + "\n" + ui.Info.Sprint("→") + " Run from a terminal so the passphrase can be prompted for"
	default:
		return msg
	}
}

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

