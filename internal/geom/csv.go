package geom

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"strings"

	"urban3d/internal/building"
)

// LoadCSV reads one building per row. The footprint comes from a WKT column
// (wkt|geometry|footprint|geom); id, height_m|height, levels, address, type
// and area_m2 columns are optional. Rows whose footprint does not parse are
// skipped.
func LoadCSV(path string) ([]building.Building, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	col := map[string]int{}
	for i, h := range recs[0] {
		lh := strings.ToLower(strings.TrimSpace(h))
		switch lh {
		case "wkt", "geometry", "footprint", "geom":
			lh = "wkt"
		case "height":
			lh = "height_m"
		case "building:levels":
			lh = "levels"
		case "building", "kind":
			lh = "type"
		}
		if _, dup := col[lh]; !dup {
			col[lh] = i
		}
	}
	if _, ok := col["wkt"]; !ok {
		return nil, errors.New("csv: footprint wkt column not found")
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []building.Building
	for n, row := range recs[1:] {
		coords, err := ParseFootprintWKT(field(row, "wkt"))
		if err != nil {
			continue
		}
		b := building.Building{ID: int64(n + 1), Coords: coords}
		if id, err := strconv.ParseInt(field(row, "id"), 10, 64); err == nil {
			b.ID = id
		}
		tags := map[string]string{
			"height":   field(row, "height_m"),
			"levels":   field(row, "levels"),
			"building": field(row, "type"),
			"name":     field(row, "address"),
		}
		b.FromTags(tags)
		if a, err := strconv.ParseFloat(field(row, "area_m2"), 64); err == nil {
			b.AreaM2 = a
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, errors.New("csv: no valid footprints parsed")
	}
	return out, nil
}
