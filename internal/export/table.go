package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// table is a CSV file with a located header.
type table struct {
	cols      map[string]int
	width     int
	rows      [][]string
	malformed int
}

// row is one record with case-insensitive column lookup.
type row struct {
	t      *table
	fields []string
}

// get returns the first non-empty value among the aliased columns.
func (r row) get(aliases ...string) string {
	for _, a := range aliases {
		i, ok := r.t.cols[normalizeHeader(a)]
		if !ok || i >= len(r.fields) {
			continue
		}
		if v := strings.TrimSpace(r.fields[i]); v != "" {
			return v
		}
	}
	return ""
}

func (t *table) each(fn func(row)) {
	for _, fields := range t.rows {
		fn(row{t: t, fields: fields})
	}
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// readTable locates the header and reads every record below it. When
// headerPrefix is set, lines before the first line starting with it are
// treated as preamble. Otherwise the first non-empty line is the header.
func readTable(content, headerPrefix string) (*table, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	body, ok := skipPreamble(content, headerPrefix)
	if !ok {
		return nil, errNoHeader
	}

	r := csv.NewReader(strings.NewReader(body))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errNoHeader
	}
	t := &table{cols: make(map[string]int, len(header)), width: len(header)}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := t.cols[key]; !dup && key != "" {
			t.cols[key] = i
		}
	}

	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				t.malformed++
				continue
			}
			return nil, err
		}
		if blank(fields) {
			continue
		}
		// A lone value under a multi-column header is a stray line, not a record.
		if t.width > 1 && len(fields) == 1 {
			t.malformed++
			continue
		}
		t.rows = append(t.rows, fields)
	}
	return t, nil
}

func skipPreamble(content, headerPrefix string) (string, bool) {
	rest := content
	for rest != "" {
		line := rest
		next := ""
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], rest[i+1:]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if headerPrefix == "" || strings.HasPrefix(strings.ToLower(trimmed), headerPrefix) {
				return rest, true
			}
		}
		rest = next
	}
	return "", false
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
