package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/confseal/internal/utils"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp   string `json:"ts"`    // RFC3339 with microseconds.
	OperationID string `json:"op_id"` // Shared by entries of one invocation.
	User        string `json:"user"`  // Local account name.
	Operation   string `json:"op"`    // protect, unprotect or keygen.

	File      string   `json:"file,omitempty"`
	Sections  []string `json:"sections,omitempty"`
	Algorithm string   `json:"algorithm,omitempty"`
	KeyPath   string   `json:"key_path,omitempty"`
	KeyBits   int      `json:"key_bits,omitempty"`
}

// Recorder appends entries to one log file. A zero Recorder or one with an
// empty Path discards everything.
type Recorder struct {
	Path        string
	OperationID string
	User        string
}

// NewRecorder returns a Recorder with a fresh operation ID.
func NewRecorder(path string) *Recorder {
	user, err := utils.GetUsername()
	if err != nil {
		user = "unknown"
	}
	return &Recorder{
		Path:        path,
		OperationID: uuid.New().String(),
		User:        user,
	}
}

// Log appends entry, filling in the timestamp, operation ID and user.
func (r *Recorder) Log(entry Entry) {
	if r == nil || r.Path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(timestampLayout)
	}
	if entry.OperationID == "" {
		entry.OperationID = r.OperationID
	}
	if entry.User == "" {
		entry.User = r.User
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(r.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the log at path. A missing log yields
// no entries.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data), nil
}

// ParseEntries parses JSON Lines data. Malformed lines, such as a
// partially written final line, are skipped.
func ParseEntries(data []byte) []Entry {
	var entries []Entry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
