// Package sheet loads the syscall status table from a spreadsheet.
//
// The table has a header row followed by one row per syscall; only the
// first three columns matter: id, name, status. Status text is free-form
// in the source document and is normalized here into the fixed status
// vocabulary the rest of the tool works with.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Status is a syscall implementation state. The normalizer produces one
// of the constants below for recognized status text; unrecognized
// non-empty text passes through unchanged, so Status stays an open
// string type rather than a closed enum.
type Status string

const (
	Okay       Status = "OKAY"
	Absent     Status = "ABSENT"
	NotImpl    Status = "NOT_IMPL"
	Incomplete Status = "INCOMPLETE"
	RegMiss    Status = "REG_MISS"
	Stubbed    Status = "STUBBED"
	Broken     Status = "BROKEN"
	InProgress Status = "IN_PROGRESS"
	Planned    Status = "PLANNED"
)

// AllStatuses lists every status value in bucket-seeding order.
var AllStatuses = []Status{
	Okay, Absent, NotImpl, Incomplete, RegMiss,
	Stubbed, Broken, InProgress, Planned,
}

// Row is one raw data row of the status table: the first three cells,
// exactly as the spreadsheet holds them.
type Row struct {
	ID     string
	Name   string
	Status string
}

// Record is a normalized status table entry.
type Record struct {
	ID     int
	Name   string
	Status Status
}

// statusRules map a substring of the raw status text to a Status. Rules
// are evaluated in order and the first match wins; reordering changes
// the result for text matching more than one keyword.
var statusRules = []struct {
	substr string
	status Status
}{
	{"incomplete", Incomplete},
	{"registration missing", RegMiss},
	{"stubbed", Stubbed},
	{"planned", Planned},
	{"progress", InProgress},
	{"broken", Broken},
	{"okay", Okay},
}

// NormalizeStatus maps raw status-cell text to a Status. Empty text
// means the syscall is not implemented; text matching no rule passes
// through as-is.
func NormalizeStatus(raw string) Status {
	if raw == "" {
		return NotImpl
	}
	for _, r := range statusRules {
		if strings.Contains(raw, r.substr) {
			return r.status
		}
	}
	return Status(raw)
}

// FromRow converts one raw row into a Record. An id cell that is not a
// number yields -1 instead of an error. Spreadsheet readers sometimes
// surface integer cells as "57.0", so a float parse is accepted too.
func FromRow(r Row) Record {
	idText := strings.TrimSpace(r.ID)
	id, err := strconv.Atoi(idText)
	if err != nil {
		if f, ferr := strconv.ParseFloat(idText, 64); ferr == nil {
			id = int(f)
		} else {
			id = -1
		}
	}
	return Record{ID: id, Name: r.Name, Status: NormalizeStatus(r.Status)}
}

// Load reads the status table at path, selecting a reader by file
// extension. The header row is skipped.
func Load(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("sheet: unsupported spreadsheet format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

// loadXLSX reads the first worksheet of an xlsx workbook.
func loadXLSX(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("sheet: %s has no worksheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet: read %s: %w", path, err)
	}
	return fromRows(rows), nil
}

// loadCSV reads a comma-separated export of the status table.
func loadCSV(path string) ([]Record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open %s: %w", path, err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("sheet: read %s: %w", path, err)
	}
	return fromRows(rows), nil
}

// fromRows drops the header row and converts the remainder. Short rows
// are padded with empty cells; columns beyond the third are ignored.
// Rows with all three cells empty (trailing spreadsheet padding) are
// skipped.
func fromRows(rows [][]string) []Record {
	var recs []Record
	for i, cells := range rows {
		if i == 0 {
			continue
		}
		row := Row{ID: cell(cells, 0), Name: cell(cells, 1), Status: cell(cells, 2)}
		if row.ID == "" && row.Name == "" && row.Status == "" {
			continue
		}
		recs = append(recs, FromRow(row))
	}
	return recs
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
