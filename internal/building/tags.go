package building

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultHeightM is used when neither a height nor a level count is tagged.
const DefaultHeightM = 9.0

// MetersPerLevel converts a level count to an estimated height.
const MetersPerLevel = 3.0

var numberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// EstimateHeight derives an extrusion height from OSM-style tags: the first
// number in "height", else levels x 3 m, else DefaultHeightM.
func EstimateHeight(tags map[string]string) float64 {
	if v, ok := tags["height"]; ok {
		if f, ok := firstNumber(v); ok {
			return Round2(f)
		}
	}
	for _, k := range []string{"building:levels", "levels"} {
		if v, ok := tags[k]; ok {
			if f, ok := firstNumber(v); ok {
				return Round2(f * MetersPerLevel)
			}
		}
	}
	return DefaultHeightM
}

// Address builds a display address: "housenumber street", else the name,
// else "Unknown".
func Address(tags map[string]string) string {
	var parts []string
	for _, k := range []string{"addr:housenumber", "addr:street"} {
		if v := strings.TrimSpace(tags[k]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if n := strings.TrimSpace(tags["name"]); n != "" {
		return n
	}
	return "Unknown"
}

// Kind returns the building tag value, defaulting to "building".
func Kind(tags map[string]string) string {
	if v := tags["building"]; v != "" {
		return v
	}
	return "building"
}

// Levels returns the raw level tag or "N/A".
func Levels(tags map[string]string) string {
	if v := tags["building:levels"]; v != "" {
		return v
	}
	if v := tags["levels"]; v != "" {
		return v
	}
	return "N/A"
}

// FromTags fills the descriptive attributes of b from tags.
func (b *Building) FromTags(tags map[string]string) {
	b.Address = Address(tags)
	b.Type = Kind(tags)
	b.HeightM = EstimateHeight(tags)
	b.Levels = Levels(tags)
}

// LevelCount parses Levels as a number.
func (b *Building) LevelCount() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(b.Levels), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MinWayNodes is the smallest node count of a usable closed OSM way.
const MinWayNodes = 4

// FromWay converts an OSM way with resolved [lat, lon] node coordinates. Ways
// with fewer than MinWayNodes nodes are rejected; open rings are closed.
func FromWay(id int64, tags map[string]string, coords [][2]float64) (Building, bool) {
	if len(coords) < MinWayNodes {
		return Building{}, false
	}
	if coords[0] != coords[len(coords)-1] {
		coords = append(coords, coords[0])
	}
	b := Building{ID: id, Coords: coords}
	b.FromTags(tags)
	return b, true
}
