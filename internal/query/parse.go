package query

import (
	"regexp"
	"strconv"
	"strings"
)

// KnownTypes are the building kinds recognised by name.
var KnownTypes = []string{
	"commercial", "retail", "office", "residential", "apartments", "house",
	"industrial", "warehouse", "school", "church", "hospital", "hotel",
}

const (
	levelWords = `(?:level|levels|storey|storeys|story|stories|floor|floors)`
	areaWords  = `(?:area|sqm|m2|m²|square\s*met(?:er|re)s?|sq\s*ft|ft2|ft²)`
	number     = `([0-9]+(?:\.[0-9]+)?)`
	unit       = `(m|meter|meters|metre|metres|m2|m²|sq\s*ft|ft2|ft²|feet|foot|ft)?`
)

var (
	typeRes     = make(map[string]*regexp.Regexp, len(KnownTypes))
	explicitRe  = regexp.MustCompile(`(?i)\b(height|` + levelWords + `|area)\b.*?(>=|<=|>|<|=)?\s*` + number + `\s*` + unit)
	wordyRe     = regexp.MustCompile(`(?i)\b(over|more than|greater than|at least|minimum|min|under|less than|no more than|at most|max|maximum)\b\s*` + number + `\s*` + unit)
	levelRe     = regexp.MustCompile(`(?i)` + levelWords)
	levelOnlyRe = regexp.MustCompile(`(?i)^` + levelWords + `$`)
	areaRe      = regexp.MustCompile(`(?i)` + areaWords)
	feetRe      = regexp.MustCompile(`(?i)\b(feet|foot|ft)\b`)
	sqFeetRe    = regexp.MustCompile(`(?i)(sq\s*ft|ft2|ft²|square\s*feet)`)
)

func init() {
	for _, t := range KnownTypes {
		typeRes[t] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
	}
}

// Parse extracts one filter from text, or nil when nothing is recognised.
// Type names win over numeric comparisons; an explicit attribute ("height",
// "floors", "area") wins over a bare comparative ("over 50").
func Parse(text string) *Filter {
	txt := strings.TrimSpace(text)

	var types []string
	for _, t := range KnownTypes {
		if typeRes[t].MatchString(txt) {
			types = append(types, t)
		}
	}
	if len(types) > 0 {
		return &Filter{Attribute: AttrType, Operator: OpIn, Values: types}
	}

	if m := explicitRe.FindStringSubmatch(txt); m != nil {
		attr, op, val, u := strings.ToLower(m[1]), m[2], m[3], strings.ToLower(m[4])
		if op == "" {
			op = OpGT
		}
		switch {
		case levelOnlyRe.MatchString(attr):
			return &Filter{Attribute: AttrLevels, Operator: op, Value: val}
		case attr == "area":
			return &Filter{Attribute: AttrArea, Operator: op, Value: areaValue(txt+" "+u, val)}
		default:
			return &Filter{Attribute: AttrHeight, Operator: op, Value: heightValue(txt+" "+u, val)}
		}
	}

	if m := wordyRe.FindStringSubmatch(txt); m != nil {
		op := OpLE
		switch strings.ToLower(m[1]) {
		case "over", "more than", "greater than", "at least", "minimum", "min":
			op = OpGT
		}
		val, u := m[2], strings.ToLower(m[3])
		switch {
		case levelRe.MatchString(txt):
			return &Filter{Attribute: AttrLevels, Operator: op, Value: val}
		case areaRe.MatchString(txt):
			return &Filter{Attribute: AttrArea, Operator: op, Value: areaValue(txt+" "+u, val)}
		default:
			return &Filter{Attribute: AttrHeight, Operator: op, Value: heightValue(txt+" "+u, val)}
		}
	}
	return nil
}

func heightValue(context, val string) string {
	v, _ := strconv.ParseFloat(val, 64)
	if feetRe.MatchString(context) {
		v *= FeetToMeters
	}
	return formatFloat(v)
}

func areaValue(context, val string) string {
	v, _ := strconv.ParseFloat(val, 64)
	if sqFeetRe.MatchString(context) {
		v *= SquareFeetToSquareMeters
	}
	return formatFloat(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
