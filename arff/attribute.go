// Package arff reads Attribute-Relation File Format datasets, dense and sparse.
package arff

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the declared type of an attribute.
type Kind int

const (
	Numeric Kind = iota
	Nominal
	String
	Date
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	case String:
		return "string"
	case Date:
		return "date"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Attribute is one @attribute declaration.
type Attribute struct {
	Name string
	Kind Kind
	// Values is the nominal domain in declaration order.
	Values []string
	// DateFormat is kept verbatim; date values are not interpreted.
	DateFormat string
}

// Index returns the position of v in the nominal domain, or -1.
func (a Attribute) Index(v string) int {
	for i, s := range a.Values {
		if s == v {
			return i
		}
	}
	return -1
}

// TypeString renders the attribute type the way it is declared in a header.
func (a Attribute) TypeString() string {
	switch a.Kind {
	case Nominal:
		return "{" + strings.Join(a.Values, ",") + "}"
	case Date:
		if a.DateFormat != "" {
			return "date " + a.DateFormat
		}
		return "date"
	}
	return a.Kind.String()
}

// Value is a single cell. Numeric and nominal cells carry Num (the nominal
// index for nominal attributes); nominal, string and date cells carry Str
// and set Text, which keeps an empty string distinct from the number 0.
type Value struct {
	Num     float64
	Str     string
	Text    bool
	Missing bool
}

// MissingValue is the cell produced by "?".
func MissingValue() Value {
	return Value{Num: math.NaN(), Missing: true}
}

// String renders the cell as it would appear in a dense data row.
func (v Value) String() string {
	if v.Missing {
		return "?"
	}
	if v.Text || v.Str != "" {
		return v.Str
	}
	return fmt.Sprintf("%g", v.Num)
}

// zero is the implicit value of an attribute omitted from a sparse row.
func (a Attribute) zero() Value {
	switch a.Kind {
	case Nominal:
		if len(a.Values) > 0 {
			return Value{Num: 0, Str: a.Values[0], Text: true}
		}
	case String, Date:
		return Value{Text: true}
	}
	return Value{Num: 0}
}

// Relation is a parsed ARFF file.
type Relation struct {
	Name       string
	Attributes []Attribute
	Data       [][]Value
}
