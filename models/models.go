package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	StudentIDColumn = "studentId" // Opaque student identifier
	ClassColumn     = "class"     // Label used for filtering
)

type schema struct {
	columns []string
	index   map[string]int
}

// Record is one student row: an ordered mapping from column name to cell.
type Record struct {
	schema *schema
	values []Value
}

// Get returns the cell for column.
func (r Record) Get(column string) (Value, bool) {
	if r.schema == nil {
		return Value{}, false
	}
	i, ok := r.schema.index[column]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Columns returns the column names in source order.
func (r Record) Columns() []string {
	if r.schema == nil {
		return nil
	}
	return append([]string(nil), r.schema.columns...)
}

// MarshalJSON encodes the record as an object whose keys keep column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r.schema != nil {
		for i, col := range r.schema.columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := r.values[i].MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the read-only student table. It has no mutators; accessors hand
// out fresh slices so callers can never alter the rows it holds.
type Table struct {
	schema  *schema
	records []Record
}

// NewTable builds a table from a header and rows of cells. Every row must
// be exactly as wide as the header and column names must be unique.
func NewTable(columns []string, rows [][]Value) (*Table, error) {
	s := &schema{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range s.columns {
		if _, dup := s.index[col]; dup {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		s.index[col] = i
	}

	records := make([]Record, 0, len(rows))
	for n, row := range rows {
		if len(row) != len(s.columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", n+1, len(row), len(s.columns))
		}
		records = append(records, Record{schema: s, values: append([]Value(nil), row...)})
	}
	return &Table{schema: s, records: records}, nil
}

// EmptyTable returns a table with the given columns and no rows.
func EmptyTable(columns ...string) *Table {
	t, err := NewTable(columns, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in source order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.schema.columns...)
}

// HasColumn reports whether the table carries column.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.schema.index[column]
	return ok
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns every record in load order.
func (t *Table) Records() []Record {
	return append(make([]Record, 0, len(t.records)), t.records...)
}

// WhereIn returns, in load order, the records whose column text equals one
// of values exactly. An empty values set matches nothing, and so does a
// column the table does not have.
func (t *Table) WhereIn(column string, values []string) []Record {
	out := make([]Record, 0)
	i, ok := t.schema.index[column]
	if !ok || len(values) == 0 {
		return out
	}
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}
	for _, rec := range t.records {
		if _, hit := want[rec.values[i].Raw()]; hit {
			out = append(out, rec)
		}
	}
	return out
}

// SelectByClass applies the class filter: when filtered is false every
// record is returned, otherwise only records whose class is in classes.
func (t *Table) SelectByClass(classes []string, filtered bool) []Record {
	if !filtered {
		return t.Records()
	}
	return t.WhereIn(ClassColumn, classes)
}

// StudentsResponse is the body of GET /api.
type StudentsResponse struct {
	Students []Record `json:"students"`
}
