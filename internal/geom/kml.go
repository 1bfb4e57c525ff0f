package geom

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"urban3d/internal/building"
)

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygon struct {
	Outer kmlRing `xml:"outerBoundaryIs"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPlacemark struct {
	ID       string       `xml:"id,attr"`
	Name     string       `xml:"name"`
	Polygon  *kmlPolygon  `xml:"Polygon"`
	Multi    []kmlPolygon `xml:"MultiGeometry>Polygon"`
	Extended []kmlData    `xml:"ExtendedData>Data"`
}

// LoadKML extracts Polygon placemarks (outer boundary only) from a KML file.
// ExtendedData entries are read as building tags. KML coordinates are
// "lon,lat[,alt]"; altitude is ignored.
func LoadKML(path string) ([]building.Building, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeKML(f)
}

// DecodeKML walks the document for Placemark elements at any depth.
func DecodeKML(r io.Reader) ([]building.Building, error) {
	dec := xml.NewDecoder(r)
	var out []building.Building
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		if b, ok := pm.building(int64(len(out) + 1)); ok {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("kml: no polygon placemarks found")
	}
	return out, nil
}

func (pm *kmlPlacemark) building(fallbackID int64) (building.Building, bool) {
	var ring [][2]float64
	if pm.Polygon != nil {
		ring = parseKMLCoords(pm.Polygon.Outer.Coordinates)
	}
	if len(ring) == 0 && len(pm.Multi) > 0 {
		ring = parseKMLCoords(pm.Multi[0].Outer.Coordinates)
	}
	if len(ring) == 0 {
		return building.Building{}, false
	}
	tags := map[string]string{"name": strings.TrimSpace(pm.Name)}
	for _, d := range pm.Extended {
		tags[d.Name] = strings.TrimSpace(d.Value)
	}
	b := building.Building{ID: fallbackID, Coords: ring}
	if id, err := strconv.ParseInt(strings.TrimSpace(firstNonEmpty(tags["id"], pm.ID)), 10, 64); err == nil {
		b.ID = id
	}
	if tags["type"] != "" && tags["building"] == "" {
		tags["building"] = tags["type"]
	}
	if tags["height_m"] != "" && tags["height"] == "" {
		tags["height"] = tags["height_m"]
	}
	b.FromTags(tags)
	if a := tags["address"]; a != "" {
		b.Address = a
	}
	if a, err := strconv.ParseFloat(tags["area_m2"], 64); err == nil {
		b.AreaM2 = a
	}
	return b, true
}

func parseKMLCoords(s string) [][2]float64 {
	var out [][2]float64
	for _, tup := range strings.Fields(s) {
		parts := strings.Split(tup, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, [2]float64{lat, lon})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
