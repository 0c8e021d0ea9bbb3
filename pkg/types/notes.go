package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NoteTimestampLayout matches the bracketed stamp rendered in front of each note block.
const NoteTimestampLayout = "2006-01-02 15:04:05"

type NoteKind string

const (
	NoteKindOperator     NoteKind = "operator"
	NoteKindReassignment NoteKind = "reassignment"
	NoteKindStatus       NoteKind = "status"
	NoteKindLegacy       NoteKind = "legacy"
)

// NoteEntry is one block of the booking's note history.
type NoteEntry struct {
	At     time.Time `json:"at"`
	Author string    `json:"author,omitempty"`
	Kind   NoteKind  `json:"kind"`
	Text   string    `json:"text"`
}

// NoteLog is an append-only list of note entries persisted as JSON.
type NoteLog []NoteEntry

// Append returns a new log with entry added to the end.
func (n NoteLog) Append(entry NoteEntry) NoteLog {
	out := make(NoteLog, 0, len(n)+1)
	out = append(out, n...)
	return append(out, entry)
}

// Render flattens the log into the legacy text form: each entry becomes
// "\n[<timestamp>] <text>". Legacy entries are emitted verbatim.
func (n NoteLog) Render() string {
	var b strings.Builder
	for _, entry := range n {
		if entry.Kind == NoteKindLegacy {
			b.WriteString(entry.Text)
			continue
		}
		b.WriteString("\n[")
		b.WriteString(entry.At.Format(NoteTimestampLayout))
		b.WriteString("] ")
		b.WriteString(entry.Text)
	}
	return b.String()
}

func (n NoteLog) Value() (driver.Value, error) {
	if n == nil {
		n = NoteLog{}
	}
	raw, err := json.Marshal([]NoteEntry(n))
	if err != nil {
		return nil, fmt.Errorf("notes: %w", err)
	}
	return string(raw), nil
}

// Scan accepts the JSON list. Plain text from older rows is kept as a single legacy entry.
func (n *NoteLog) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*n = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("notes: unsupported scan type %T", value)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		*n = nil
		return nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		*n = NoteLog{{Kind: NoteKindLegacy, Text: string(raw)}}
		return nil
	}

	var entries []NoteEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	*n = entries
	return nil
}
