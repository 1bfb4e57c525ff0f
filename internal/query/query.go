// Package query turns a short English request ("buildings over 50 m",
// "office buildings", "at least 10 floors") into a Filter and evaluates it.
package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"urban3d/internal/building"
)

// Attributes a Filter can test.
const (
	AttrHeight = "height_m"
	AttrLevels = "levels"
	AttrArea   = "area_m2"
	AttrType   = "type"
)

// Operators understood by Apply.
const (
	OpGT = ">"
	OpGE = ">="
	OpLT = "<"
	OpLE = "<="
	OpEQ = "="
	OpIn = "in"
)

// Conversion factors to metric units.
const (
	FeetToMeters             = 0.3048
	SquareFeetToSquareMeters = 0.092903
)

// Filter is one attribute comparison. Values holds the list operand of
// OpIn; every other operator uses Value.
type Filter struct {
	Attribute string
	Operator  string
	Value     string
	Values    []string
}

type wireFilter struct {
	Attribute string          `json:"attribute"`
	Operator  string          `json:"operator"`
	Value     json.RawMessage `json:"value"`
}

// MarshalJSON writes value as a list for OpIn and as a string otherwise.
func (f Filter) MarshalJSON() ([]byte, error) {
	var v any = f.Value
	if f.Operator == OpIn {
		v = f.Values
		if f.Values == nil {
			v = []string{}
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireFilter{Attribute: f.Attribute, Operator: f.Operator, Value: raw})
}

// UnmarshalJSON accepts value as a string, a number or a list of strings.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var w wireFilter
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Filter{Attribute: w.Attribute, Operator: w.Operator}
	if len(w.Value) == 0 || string(w.Value) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(w.Value, &list); err == nil {
		f.Values = list
		return nil
	}
	var s string
	if err := json.Unmarshal(w.Value, &s); err == nil {
		f.Value = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(w.Value, &n); err != nil {
		return fmt.Errorf("query: unsupported filter value %s", w.Value)
	}
	f.Value = strconv.FormatFloat(n, 'f', -1, 64)
	return nil
}

func (f Filter) String() string {
	if f.Operator == OpIn {
		return fmt.Sprintf("%s in [%s]", f.Attribute, strings.Join(f.Values, ", "))
	}
	return fmt.Sprintf("%s %s %s", f.Attribute, f.Operator, f.Value)
}

// Apply returns the ids of the buildings matching f, in input order. A nil
// filter matches nothing.
func Apply(bs []building.Building, f *Filter) []int64 {
	ids := []int64{}
	if f == nil {
		return ids
	}
	for i := range bs {
		if f.Match(&bs[i]) {
			ids = append(ids, bs[i].ID)
		}
	}
	return ids
}

// Match evaluates f against one building. Buildings whose attribute cannot
// be read as a number never match a numeric filter.
func (f *Filter) Match(b *building.Building) bool {
	var x float64
	switch f.Attribute {
	case AttrHeight:
		x = b.HeightM
	case AttrArea:
		x = b.AreaM2
	case AttrLevels:
		n, ok := b.LevelCount()
		if !ok {
			return false
		}
		x = n
	case AttrType:
		kind := strings.ToLower(b.Type)
		if f.Operator == OpIn {
			items := f.Values
			if len(items) == 0 && f.Value != "" {
				items = []string{f.Value}
			}
			for _, it := range items {
				if strings.Contains(kind, strings.ToLower(strings.TrimSpace(it))) {
					return true
				}
			}
			return false
		}
		return kind == strings.ToLower(f.Value)
	default:
		return false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return false
	}
	switch f.Operator {
	case OpGT:
		return x > y
	case OpGE:
		return x >= y
	case OpLT:
		return x < y
	case OpLE:
		return x <= y
	case OpEQ:
		return math.Abs(x-y) < 1e-9
	}
	return false
}
