// Package table implements the tabular record model backing all persisted
// user data: an ordered header set, data rows, and a single metadata row,
// serialized to a quoted CSV dialect.
package table

import (
	"time"
)

// MetadataMarker is the reserved value of the "type" field that discriminates
// the metadata row from data rows in serialized form.
const MetadataMarker = "metadata"

// metadataHeaders are always present so the metadata row can be serialized.
var metadataHeaders = []string{"type", "version", "email", "user_agent"}

// Record is one row of a Table. Keys are header names; a missing key is a
// null cell. Values are kept as raw cell text; typed interpretation happens
// at the domain layer.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is the local persistence unit for one user's data.
type Table struct {
	Headers  []string
	Rows     []Record
	Metadata Record
}

// New creates a table seeded with the given headers and a metadata row
// recording the format version and the owning identity. The metadata
// headers are unioned in ahead of the caller's defaults.
func New(identity, version, agent string, headers []string, now time.Time) Table {
	t := Table{
		Metadata: Record{
			"type":       MetadataMarker,
			"version":    version,
			"email":      identity,
			"user_agent": agent,
			"created_at": now.UTC().Format(time.RFC3339),
		},
	}
	t.EnsureHeaders(metadataHeaders)
	t.EnsureHeaders([]string{"created_at"})
	t.EnsureHeaders(headers)
	return t
}

// EnsureHeaders unions the given headers into the table, appending any that
// are missing. Existing rows are not rewritten; absent cells stay null.
// Reports whether the header set changed.
func (t *Table) EnsureHeaders(headers []string) bool {
	existing := make(map[string]struct{}, len(t.Headers))
	for _, h := range t.Headers {
		existing[h] = struct{}{}
	}
	changed := false
	for _, h := range headers {
		if _, ok := existing[h]; ok {
			continue
		}
		t.Headers = append(t.Headers, h)
		existing[h] = struct{}{}
		changed = true
	}
	return changed
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{Headers: append([]string(nil), t.Headers...)}
	if t.Metadata != nil {
		out.Metadata = t.Metadata.Clone()
	}
	if t.Rows != nil {
		out.Rows = make([]Record, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Version reports the format version recorded in the metadata row, or
// "unknown" when absent.
func (t Table) Version() string {
	if v, ok := t.Metadata["version"]; ok && v != "" {
		return v
	}
	return "unknown"
}
