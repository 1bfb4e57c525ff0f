package geom

import (
	"errors"
	"io"
	"os"
	"runtime"

	"github.com/qedus/osmpbf"

	"urban3d/internal/building"
)

// LoadPBF extracts building ways from an OSM PBF extract. When bbox is valid,
// only nodes inside it are kept, so ways crossing the edge are dropped.
func LoadPBF(path string, bbox BBox) ([]building.Building, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := osmpbf.NewDecoder(f)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, err
	}

	// PBF files store nodes before ways, so one pass is enough.
	nodes := make(map[int64][2]float64)
	var out []building.Building
	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch o := object.(type) {
		case *osmpbf.Node:
			if bbox.Valid() && !bbox.Contains(o.Lon, o.Lat) {
				continue
			}
			nodes[o.ID] = [2]float64{o.Lat, o.Lon}
		case *osmpbf.Way:
			if _, ok := o.Tags["building"]; !ok {
				continue
			}
			coords := make([][2]float64, 0, len(o.NodeIDs))
			complete := true
			for _, id := range o.NodeIDs {
				c, ok := nodes[id]
				if !ok {
					complete = false
					break
				}
				coords = append(coords, c)
			}
			if !complete {
				continue
			}
			if b, ok := building.FromWay(o.ID, o.Tags, coords); ok {
				out = append(out, b)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("pbf: no building ways found")
	}
	return out, nil
}
