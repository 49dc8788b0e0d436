package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Marshal serializes the table: header line first, metadata line second when
// present, then one line per row. Values containing the delimiter, a quote,
// or a line break are quoted with doubled internal quotes.
func (t Table) Marshal() string {
	if len(t.Headers) == 0 {
		return ""
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	write := func(r Record) {
		fields := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			fields[i] = r[h]
		}
		// strings.Builder never fails; csv.Writer reports errors on Flush.
		_ = w.Write(fields)
	}

	_ = w.Write(t.Headers)
	if t.Metadata != nil {
		write(t.Metadata)
	}
	for _, r := range t.Rows {
		write(r)
	}
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// Unmarshal parses serialized table text back into a Table. The first record
// is the header row; if the first data record carries the metadata marker in
// its "type" field it becomes Metadata rather than a row. Short records are
// parsed best-effort: missing trailing fields stay null.
func Unmarshal(text string) (Table, error) {
	if strings.TrimSpace(text) == "" {
		return Table{}, nil
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return Table{}, fmt.Errorf("read header row: %w", err)
	}
	t := Table{Headers: headers}

	for i := 0; ; i++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t, fmt.Errorf("read row %d: %w", i+1, err)
		}
		rec := make(Record, len(headers))
		for j, h := range headers {
			if j < len(fields) && fields[j] != "" {
				rec[h] = fields[j]
			}
		}
		if i == 0 && rec["type"] == MetadataMarker {
			t.Metadata = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
