package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the JSON type a cell is served as.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// missingMarkers are cell texts treated as an absent value, the same set a
// pandas read_csv recognises by default.
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw cell should be normalized to "".
func IsMissing(raw string) bool {
	_, ok := missingMarkers[raw]
	return ok
}

// Value is a single cell: the source text plus the type it is served as.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	raw  string
	i    int64
	f    float64
	b    bool
}

// StringValue wraps text as a string cell.
func StringValue(s string) Value {
	return Value{kind: KindString, raw: s}
}

// ParseValue converts raw text to a cell of the given kind. Missing cells are
// always the empty string regardless of kind, and text that does not parse
// as kind falls back to a string cell.
func ParseValue(raw string, kind Kind) Value {
	if IsMissing(raw) {
		return StringValue("")
	}
	s := strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{kind: KindInt, raw: raw, i: n}
		}
	case KindFloat:
		if f, ok := parseFinite(s); ok {
			return Value{kind: KindFloat, raw: raw, f: f}
		}
	case KindBool:
		if b, ok := parseBool(s); ok {
			return Value{kind: KindBool, raw: raw, b: b}
		}
	}
	return StringValue(raw)
}

// InferKind picks the narrowest kind every non-missing cell parses as.
// A column with no values at all is a string column.
func InferKind(cells []string) Kind {
	ints, floats, bools, seen := true, true, true, 0
	for _, raw := range cells {
		if IsMissing(raw) {
			continue
		}
		seen++
		s := strings.TrimSpace(raw)
		if ints {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if _, ok := parseFinite(s); !ok {
				floats = false
			}
		}
		if bools {
			if _, ok := parseBool(s); !ok {
				bools = false
			}
		}
		if !ints && !floats && !bools {
			return KindString
		}
	}
	switch {
	case seen == 0:
		return KindString
	case ints:
		return KindInt
	case floats:
		return KindFloat
	case bools:
		return KindBool
	}
	return KindString
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Kind returns the served type of the cell.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the cell text as it appeared in the source file.
func (v Value) Raw() string { return v.raw }

func (v Value) String() string { return v.raw }

// MarshalJSON never produces null: missing cells are "".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	default:
		return json.Marshal(v.raw)
	}
}
