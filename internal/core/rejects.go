package core

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entity kinds recorded in the rejection log.
const (
	KindBook      = "Book"
	KindOrder     = "Order"
	KindOrderItem = "OrderItem"
)

const rejectSeparator = "----------------------------------------"

// RejectedRecord is one skipped input record with the reason it was skipped.
type RejectedRecord struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Payload any    `json:"payload"`
}

// RejectionLog accumulates rejected records during one import and is flushed
// to a plain-text file afterwards, replacing any previous log.
type RejectionLog struct {
	entries []RejectedRecord
}

// Add appends a rejection. The payload is the full original record and is
// pretty-printed into the log file.
func (l *RejectionLog) Add(kind, reason string, payload any) {
	l.entries = append(l.entries, RejectedRecord{Kind: kind, Reason: reason, Payload: payload})
}

// Len returns the number of rejected records.
func (l *RejectionLog) Len() int {
	return len(l.entries)
}

// Entries returns the accumulated rejections in input order.
func (l *RejectionLog) Entries() []RejectedRecord {
	return l.entries
}

// Render formats the log as text: one block per rejection with the entity
// kind, the reason, the serialized record and a separator line.
func (l *RejectionLog) Render() string {
	var b strings.Builder
	for _, e := range l.entries {
		fmt.Fprintf(&b, "[%s] %s\n", e.Kind, e.Reason)

		payload, err := json.MarshalIndent(e.Payload, "", "  ")
		if err != nil {
			fmt.Fprintf(&b, "(unserializable record: %v)\n", err)
		} else {
			b.Write(payload)
			b.WriteByte('\n')
		}

		b.WriteString(rejectSeparator)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile overwrites path with the rendered log. An import with no
// rejections truncates the previous log to empty.
func (l *RejectionLog) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(l.Render()), 0o644); err != nil {
		return fmt.Errorf("write rejection log: %w", err)
	}
	return nil
}
