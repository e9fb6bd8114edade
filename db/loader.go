package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"student-api-server-go/models"
)

// ErrMissingColumn is returned when the data file lacks studentId or class.
var ErrMissingColumn = errors.New("missing required column")

// ErrNoHeader is returned for a data file without a header row.
var ErrNoHeader = errors.New("data file has no header row")

// LoadTable reads the student table from path, once, at startup.
//
// A file that does not exist yields an empty table with the columns
// studentId and class so the server can still start. Every other failure
// (unreadable file, malformed CSV, broken spreadsheet, missing required
// column) is returned to the caller.
//
// Rows shorter than the header are padded with blank cells. Cells beyond
// the last header column are dropped without error.
func LoadTable(path string) (*models.Table, error) {
	rows, err := readRows(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("student data file not found, serving an empty table", "path", path)
			return models.EmptyTable(models.StudentIDColumn, models.ClassColumn), nil
		}
		return nil, fmt.Errorf("failed to read student data from %s: %w", path, err)
	}

	table, err := buildTable(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load student data from %s: %w", path, err)
	}
	slog.Info("student data loaded", "path", path, "students", table.Len(), "columns", table.Columns())
	return table, nil
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcelRows(f)
	default:
		return readCSVRows(f)
	}
}

// readCSVRows parses comma separated text. Rows may be ragged; quoting
// errors fail the load.
func readCSVRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// readExcelRows reads the first sheet; its first row is the header.
func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close excel file", "error", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	// GetRows reports gaps between rows as empty slices.
	out := rows[:0]
	for _, row := range rows {
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out, nil
}

// buildTable turns a header plus data rows into a typed table. Missing
// cells become "" before any typing happens.
func buildTable(rows [][]string) (*models.Table, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	header := normalizeHeader(rows[0])
	for _, col := range []string{models.StudentIDColumn, models.ClassColumn} {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	data := rows[1:]
	cells := make([][]string, len(data))
	for i, row := range data {
		cells[i] = padRow(row, len(header))
	}

	kinds := make([]models.Kind, len(header))
	column := make([]string, len(cells))
	for c := range header {
		for r := range cells {
			column[r] = cells[r][c]
		}
		kinds[c] = models.InferKind(column)
	}

	values := make([][]models.Value, len(cells))
	for r, row := range cells {
		values[r] = make([]models.Value, len(header))
		for c, raw := range row {
			values[r][c] = models.ParseValue(raw, kinds[c])
		}
	}
	return models.NewTable(header, values)
}

// normalizeHeader strips a BOM and surrounding blanks, names empty header
// cells "Unnamed: N" and disambiguates repeats as name.1, name.2, ...
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, name := range raw {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		taken[candidate] = true
		header[i] = candidate
	}
	return header
}

// padRow fits row to width, padding with "" and dropping surplus cells.
func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
