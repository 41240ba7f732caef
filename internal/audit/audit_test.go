package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestRecorder_AppendsEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	r := NewRecorder(logPath)

	r.Log(Entry{Operation: "protect", File: "web.config", Sections: []string{"appSettings"}})
	r.Log(Entry{Operation: "protect", File: "app.config", Sections: []string{"connectionStrings"}})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	for i, entry := range entries {
		if entry.OperationID != r.OperationID {
			t.Errorf("Entry %d: expected shared operation ID %q, got %q", i, r.OperationID, entry.OperationID)
		}
		if entry.Timestamp == "" {
			t.Errorf("Entry %d: expected timestamp to be set", i)
		}
		if entry.User == "" {
			t.Errorf("Entry %d: expected user to be set", i)
		}
	}
	if entries[1].File != "app.config" || entries[1].Sections[0] != "connectionStrings" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected audit log mode 0600, got %o", info.Mode().Perm())
	}
}

func TestNewRecorder_UniqueOperationIDs(t *testing.T) {
	a := NewRecorder("a")
	b := NewRecorder("b")
	if a.OperationID == b.OperationID {
		t.Errorf("Expected distinct operation IDs")
	}
	if _, err := uuid.Parse(a.OperationID); err != nil {
		t.Errorf("Operation ID is not a UUID: %v", err)
	}
}

func TestRecorder_Disabled(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Log(Entry{Operation: "protect"})

	(&Recorder{}).Log(Entry{Operation: "protect"})
}

func TestRecorder_UnwritablePathDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to write blocker: %v", err)
	}

	r := NewRecorder(filepath.Join(blocker, "audit.jsonl"))
	r.Log(Entry{Operation: "keygen"})
}

func TestReadEntries_Missing(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"single", `{"op":"protect"}`, 1},
		{"trailing newline", "{\"op\":\"protect\"}\n{\"op\":\"unprotect\"}\n", 2},
		{"partial last line", "{\"op\":\"protect\"}\n{\"op\":\"unpro", 1},
		{"blank lines", "\n\n{\"op\":\"keygen\"}\n\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEntries([]byte(tt.data)); len(got) != tt.want {
				t.Errorf("Expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}
