package xlcalc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// csvWriter writes rows with ',' separators and a '\n' after every row.
// Only fields holding a comma or a double quote are quoted.
type csvWriter struct {
	w io.Writer
}

func (cw *csvWriter) writeRow(fields []string) error {
	var buf bytes.Buffer
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(formatField(f))
	}
	buf.WriteByte('\n')
	_, err := cw.w.Write(buf.Bytes())
	return err
}

func formatField(f string) string {
	if !strings.ContainsAny(f, `,"`) {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// WriteCSV writes the raw value of every cell, row by row, in UTF-8.
func (s *Sheet) WriteCSV(w io.Writer) error {
	cw := &csvWriter{w: w}
	for r, row := range s.grid {
		fields := make([]string, len(row))
		for c, cell := range row {
			fields[c] = cell.value.String()
		}
		if err := cw.writeRow(fields); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	return nil
}

// CSV renders the sheet as CSV bytes. A nil encoding keeps UTF-8; characters
// the encoding cannot represent are replaced.
func (s *Sheet) CSV(enc encoding.Encoding) ([]byte, error) {
	var buf bytes.Buffer
	if enc == nil {
		if err := s.WriteCSV(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	tw := transform.NewWriter(&buf, encoding.ReplaceUnsupported(enc.NewEncoder()))
	if err := s.WriteCSV(tw); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// LookupEncoding finds a single-byte character map by name, ignoring case,
// spaces, dashes and underscores: "windows-1252", "ISO 8859-1", "koi8r".
// "utf-8" and "" return a nil encoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := normalizeEncodingName(name)
	if key == "" || key == "utf8" {
		return nil, nil
	}
	for _, enc := range charmap.All {
		cm, ok := enc.(*charmap.Charmap)
		if !ok {
			continue
		}
		if normalizeEncodingName(cm.String()) == key {
			return cm, nil
		}
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

func normalizeEncodingName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		if r >= 'A' && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, strings.TrimSpace(name))
}
