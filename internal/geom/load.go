package geom

import (
	"fmt"
	"path/filepath"
	"strings"

	"urban3d/internal/building"
)

// Load dispatches on the file extension. bbox only applies to PBF extracts.
// Missing footprint areas are filled in with FillAreas.
func Load(path string, bbox BBox) ([]building.Building, error) {
	var (
		bs  []building.Building
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		bs, err = LoadGeoJSON(path)
	case ".csv":
		bs, err = LoadCSV(path)
	case ".kml":
		bs, err = LoadKML(path)
	case ".pbf":
		bs, err = LoadPBF(path, bbox)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	FillAreas(bs)
	return bs, nil
}

// Supported reports whether Load understands the extension of path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json", ".csv", ".kml", ".pbf":
		return true
	}
	return false
}

// FillAreas sets AreaM2 on buildings that lack one, projecting about the
// center of their combined bounds. Areas are rounded to two decimals.
func FillAreas(bs []building.Building) {
	bb, ok := BBoxOf(bs)
	if !ok {
		return
	}
	p := NewProjector(bb.Center())
	for i := range bs {
		if bs[i].AreaM2 == 0 {
			bs[i].AreaM2 = building.Round2(p.Area(&bs[i]))
		}
	}
}
