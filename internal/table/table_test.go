package table

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func testNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	tbl := New("alice@example.com", "1.0.0", "test-agent", []string{"id", "amount"}, testNow())

	if tbl.Metadata == nil {
		t.Fatal("New should seed a metadata row")
	}
	if got := tbl.Metadata["type"]; got != MetadataMarker {
		t.Errorf("metadata type = %q, want %q", got, MetadataMarker)
	}
	if got := tbl.Metadata["email"]; got != "alice@example.com" {
		t.Errorf("metadata email = %q, want owner identity", got)
	}
	if got := tbl.Version(); got != "1.0.0" {
		t.Errorf("Version() = %q, want 1.0.0", got)
	}

	// Metadata headers come first, caller headers after.
	want := []string{"type", "version", "email", "user_agent", "created_at", "id", "amount"}
	if !reflect.DeepEqual(tbl.Headers, want) {
		t.Errorf("headers = %v, want %v", tbl.Headers, want)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("new table should have no rows, got %d", len(tbl.Rows))
	}
}

func TestEnsureHeaders(t *testing.T) {
	tests := []struct {
		name        string
		start       []string
		add         []string
		want        []string
		wantChanged bool
	}{
		{
			name:        "appends missing",
			start:       []string{"id", "amount"},
			add:         []string{"amount", "currency"},
			want:        []string{"id", "amount", "currency"},
			wantChanged: true,
		},
		{
			name:        "no change when all present",
			start:       []string{"id", "amount"},
			add:         []string{"id"},
			want:        []string{"id", "amount"},
			wantChanged: false,
		},
		{
			name:        "empty defaults",
			start:       []string{"id"},
			add:         nil,
			want:        []string{"id"},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := Table{Headers: append([]string(nil), tt.start...)}
			changed := tbl.EnsureHeaders(tt.add)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(tbl.Headers, tt.want) {
				t.Errorf("headers = %v, want %v", tbl.Headers, tt.want)
			}
		})
	}
}

func TestEnsureHeadersKeepsRows(t *testing.T) {
	tbl := Table{
		Headers: []string{"id"},
		Rows:    []Record{{"id": "1"}},
	}
	tbl.EnsureHeaders([]string{"currency"})
	if _, ok := tbl.Rows[0]["currency"]; ok {
		t.Error("existing rows must not be rewritten on header growth")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tbl := New("bob@example.com", "1.0.0", "test-agent", []string{"id", "description", "amount"}, testNow())
	tbl.Rows = append(tbl.Rows,
		Record{"id": "1", "description": "plain", "amount": "10"},
		Record{"id": "2", "description": "with, comma", "amount": "20.50"},
		Record{"id": "3", "description": `say "hi"`, "amount": "30"},
		Record{"id": "4", "description": "line one\nline two"},
	)

	text := tbl.Marshal()
	got, err := Unmarshal(text)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !reflect.DeepEqual(got.Headers, tbl.Headers) {
		t.Errorf("headers = %v, want %v", got.Headers, tbl.Headers)
	}
	if !reflect.DeepEqual(got.Metadata, tbl.Metadata) {
		t.Errorf("metadata = %v, want %v", got.Metadata, tbl.Metadata)
	}
	if len(got.Rows) != len(tbl.Rows) {
		t.Fatalf("rows = %d, want %d", len(got.Rows), len(tbl.Rows))
	}
	for i := range tbl.Rows {
		if !reflect.DeepEqual(got.Rows[i], tbl.Rows[i]) {
			t.Errorf("row %d = %v, want %v", i, got.Rows[i], tbl.Rows[i])
		}
	}
}

func TestMarshalQuotesSpecialValues(t *testing.T) {
	tbl := Table{
		Headers: []string{"id", "description"},
		Rows:    []Record{{"id": "1", "description": `a "b", c`}},
	}
	text := tbl.Marshal()
	if !strings.Contains(text, `"a ""b"", c"`) {
		t.Errorf("expected quoted value with doubled quotes, got %q", text)
	}
}

func TestUnmarshalMetadataDiscrimination(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantMeta bool
		wantRows int
	}{
		{
			name:     "metadata second line",
			text:     "type,version,id\nmetadata,1.0.0,\nexpense,,1",
			wantMeta: true,
			wantRows: 1,
		},
		{
			name:     "no metadata line",
			text:     "type,version,id\nexpense,,1\nincome,,2",
			wantMeta: false,
			wantRows: 2,
		},
		{
			name: "metadata marker later is a plain row",
			// Only the first data line is checked for the marker.
			text:     "type,version,id\nexpense,,1\nmetadata,1.0.0,",
			wantMeta: false,
			wantRows: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Unmarshal(tt.text)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if (tbl.Metadata != nil) != tt.wantMeta {
				t.Errorf("metadata present = %v, want %v", tbl.Metadata != nil, tt.wantMeta)
			}
			if len(tbl.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(tbl.Rows), tt.wantRows)
			}
		})
	}
}

func TestUnmarshalShortLine(t *testing.T) {
	tbl, err := Unmarshal("id,amount,currency\n1,10")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tbl.Rows))
	}
	row := tbl.Rows[0]
	if row["id"] != "1" || row["amount"] != "10" {
		t.Errorf("row = %v, want id=1 amount=10", row)
	}
	if _, ok := row["currency"]; ok {
		t.Error("missing trailing field should stay null")
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	tbl, err := Unmarshal("")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(tbl.Headers) != 0 || len(tbl.Rows) != 0 || tbl.Metadata != nil {
		t.Errorf("empty input should parse to empty table, got %+v", tbl)
	}
}

func TestMarshalEmptyCellsStayNull(t *testing.T) {
	tbl := Table{
		Headers: []string{"id", "currency"},
		Rows:    []Record{{"id": "1"}},
	}
	got, err := Unmarshal(tbl.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := got.Rows[0]["currency"]; ok {
		t.Error("null cell should survive a round trip as null")
	}
}
