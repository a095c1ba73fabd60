package gnucashparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TableReader serves an export as header plus data records. It satisfies
// gocsv.CSVReader so rows can be bound with gocsv.UnmarshalCSV.
//
// Blank records are dropped, every record is padded to the header width and
// repeated header labels get a positional ".n" suffix ("Wert numerisch..1").
type TableReader struct {
	records [][]string
	pos     int
}

// NewTableReader prepares a reader over already split records. The first
// non-blank record is the header.
func NewTableReader(records [][]string) *TableReader {
	var kept [][]string
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return &TableReader{}
	}

	header := DisambiguateHeader(kept[0])
	kept[0] = header
	for i := 1; i < len(kept); i++ {
		if len(kept[i]) < len(header) {
			padded := make([]string, len(header))
			copy(padded, kept[i])
			kept[i] = padded
		}
	}
	return &TableReader{records: kept}
}

// NewDelimitedReader reads delimiter separated text in the given IANA charset.
// A byte order mark is honoured and dropped.
func NewDelimitedReader(r io.Reader, delimiter rune, encoding string) (*TableReader, error) {
	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding '%s': %w", encoding, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding '%s'", encoding)
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading delimited file: %w", err)
	}
	return NewTableReader(records), nil
}

// NewWorkbookReader reads the first sheet of an Excel workbook.
func NewWorkbookReader(r io.Reader) (*TableReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet '%s': %w", sheets[0], err)
	}
	return NewTableReader(rows), nil
}

// Header returns the disambiguated header, or nil for an empty input.
func (t *TableReader) Header() []string {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[0]
}

// Len returns the number of data records.
func (t *TableReader) Len() int {
	if len(t.records) == 0 {
		return 0
	}
	return len(t.records) - 1
}

// Rename replaces header labels through mapping; labels not in mapping are blanked
// so they cannot collide with a mapped name.
func (t *TableReader) Rename(mapping map[string]string) {
	if len(t.records) == 0 {
		return
	}
	header := make([]string, len(t.records[0]))
	for i, label := range t.records[0] {
		header[i] = mapping[label]
	}
	t.records[0] = header
}

// Read returns the next record, header first.
func (t *TableReader) Read() ([]string, error) {
	if t.pos >= len(t.records) {
		return nil, io.EOF
	}
	rec := t.records[t.pos]
	t.pos++
	return rec, nil
}

// ReadAll returns the remaining records.
func (t *TableReader) ReadAll() ([][]string, error) {
	rest := t.records[t.pos:]
	t.pos = len(t.records)
	return rest, nil
}

// DisambiguateHeader trims every label and renames the n-th repeat of a label to "label.n".
func DisambiguateHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, label := range header {
		label = strings.TrimSpace(label)
		if n, dup := seen[label]; dup {
			out[i] = label + "." + strconv.Itoa(n)
			seen[label] = n + 1
			continue
		}
		seen[label] = 1
		out[i] = label
	}
	return out
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
