package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/confseal/internal/audit"
	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

const dateLayout = "2006-01-02"

// LogOptions configures the log workflow.
type LogOptions struct {
	// Path is the audit log location.
	Path string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest.
	Reverse bool

	// User filters entries by local account name.
	User string

	// Operations filters by operation (comma-separated).
	Operations string

	// File keeps entries whose file path contains this substring.
	File string

	// Since and Until bound the entry date (YYYY-MM-DD, inclusive).
	Since string
	Until string
}

// LogResult contains the filtered entries.
type LogResult struct {
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrNoFilesFound if the log does not exist and ErrInvalidDateFormat
// for a malformed --since or --until value.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: audit logging is disabled", kerrors.ErrNoFilesFound)
	}
	if _, err := os.Stat(opts.Path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNoFilesFound, opts.Path)
	}

	var since, until time.Time
	if opts.Since != "" {
		t, err := time.Parse(dateLayout, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		since = t
	}
	if opts.Until != "" {
		t, err := time.Parse(dateLayout, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		until = t.Add(24*time.Hour - time.Nanosecond)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := audit.ReadEntries(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	ops := make(map[string]bool)
	for _, op := range strings.Split(opts.Operations, ",") {
		if op = strings.TrimSpace(op); op != "" {
			ops[strings.ToLower(op)] = true
		}
	}

	var filtered []audit.Entry
	for _, e := range entries {
		if opts.User != "" && !strings.EqualFold(e.User, opts.User) {
			continue
		}
		if len(ops) > 0 && !ops[strings.ToLower(e.Operation)] {
			continue
		}
		if opts.File != "" && !strings.Contains(e.File, opts.File) {
			continue
		}
		if !since.IsZero() || !until.IsZero() {
			t, ok := parseTimestamp(e.Timestamp)
			if !ok {
				continue
			}
			if !since.IsZero() && t.Before(since) {
				continue
			}
			if !until.IsZero() && t.After(until) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02T15:04:05.000000Z", ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime formats a timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails summarizes what an entry touched.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case "protect", "unprotect":
		details := e.File
		if len(e.Sections) > 0 {
			details += " [" + strings.Join(e.Sections, ", ") + "]"
		}
		return details
	case "keygen":
		return fmt.Sprintf("%s (%d bits)", e.KeyPath, e.KeyBits)
	default:
		return e.File
	}
}
