// Package value implements the tagged Value variant carried by simulator
// ports: bool, int, double, string, set, map, tuple, table, xml, nil and
// matrix, following VLE's vle::value hierarchy.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the Value variants.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindSet
	KindMap
	KindTuple
	KindTable
	KindXML
	KindMatrix
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindTuple:
		return "tuple"
	case KindTable:
		return "table"
	case KindXML:
		return "xml"
	case KindMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Value is a tagged variant for port payloads. The zero Value is Nil.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	d      float64
	s      string
	set    []Value
	mapv   map[string]Value
	tuple  []float64
	table  [][]float64
	matrix [][]float64
}

// Nil is the absence of a value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean payload.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer payload.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Double wraps a floating-point payload.
func Double(d float64) Value { return Value{kind: KindDouble, d: d} }

// String wraps a string payload.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Set wraps an ordered collection of values (VLE's value::Set).
func Set(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindSet, set: cp}
}

// Map wraps a string-keyed collection of values (VLE's value::Map).
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, mapv: cp}
}

// Tuple wraps a fixed vector of doubles (VLE's value::Tuple).
func Tuple(ds ...float64) Value {
	cp := make([]float64, len(ds))
	copy(cp, ds)
	return Value{kind: KindTuple, tuple: cp}
}

// Table wraps a 2D grid of doubles (VLE's value::Table).
func Table(rows [][]float64) Value {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return Value{kind: KindTable, table: cp}
}

// XML wraps an opaque XML document payload.
func XML(doc string) Value { return Value{kind: KindXML, s: doc} }

// Matrix wraps a 2D numeric matrix distinct from Table (row-major, used for
// dense multi-dimensional observations rather than tabular parameters).
func Matrix(rows [][]float64) Value {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return Value{kind: KindMatrix, matrix: cp}
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v carries no payload.
func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool returns the boolean payload and whether v is a KindBool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload and whether v is a KindInt.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsDouble returns the double payload and whether v is a KindDouble.
func (v Value) AsDouble() (float64, bool) { return v.d, v.kind == KindDouble }

// AsString returns the string payload and whether v is a KindString (XML
// payloads are not returned here; use AsXML).
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsXML returns the XML document and whether v is a KindXML.
func (v Value) AsXML() (string, bool) { return v.s, v.kind == KindXML }

// AsSet returns the element slice and whether v is a KindSet.
func (v Value) AsSet() ([]Value, bool) { return v.set, v.kind == KindSet }

// AsMap returns the underlying map and whether v is a KindMap.
func (v Value) AsMap() (map[string]Value, bool) { return v.mapv, v.kind == KindMap }

// AsTuple returns the double vector and whether v is a KindTuple.
func (v Value) AsTuple() ([]float64, bool) { return v.tuple, v.kind == KindTuple }

// AsTable returns the 2D grid and whether v is a KindTable.
func (v Value) AsTable() ([][]float64, bool) { return v.table, v.kind == KindTable }

// AsMatrix returns the 2D grid and whether v is a KindMatrix.
func (v Value) AsMatrix() ([][]float64, bool) { return v.matrix, v.kind == KindMatrix }

// Equal reports structural equality between two values. Used by the event
// view's last-seen-value cache to suppress unchanged re-emission.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindDouble:
		return v.d == other.d
	case KindString, KindXML:
		return v.s == other.s
	case KindSet:
		if len(v.set) != len(other.set) {
			return false
		}
		for i := range v.set {
			if !v.set[i].Equal(other.set[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mapv) != len(other.mapv) {
			return false
		}
		for k, val := range v.mapv {
			ov, ok := other.mapv[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	case KindTuple:
		return float64SliceEqual(v.tuple, other.tuple)
	case KindTable, KindMatrix:
		a, b := v.table, other.table
		if v.kind == KindMatrix {
			a, b = v.matrix, other.matrix
		}
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !float64SliceEqual(a[i], b[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func float64SliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders a lossless textual encoding: numeric and string variants
// encode directly, structured variants use a bracketed S-expression form,
// per the default sink's output-format contract.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return v.s
	case KindXML:
		return "(xml " + strconv.Quote(v.s) + ")"
	case KindSet:
		parts := make([]string, len(v.set))
		for i, e := range v.set {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindMap:
		keys := make([]string, 0, len(v.mapv))
		for k := range v.mapv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("(%s . %s)", k, v.mapv[k].String())
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindTuple:
		parts := make([]string, len(v.tuple))
		for i, d := range v.tuple {
			parts[i] = strconv.FormatFloat(d, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindTable:
		return renderGrid(v.table)
	case KindMatrix:
		return renderGrid(v.matrix)
	default:
		return "nil"
	}
}

func renderGrid(rows [][]float64) string {
	rowStrs := make([]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, c := range r {
			cells[j] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		rowStrs[i] = "(" + strings.Join(cells, " ") + ")"
	}
	return "(" + strings.Join(rowStrs, " ") + ")"
}
