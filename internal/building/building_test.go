package building

import (
	"errors"
	"math"
	"testing"
)

func square() [][2]float64 {
	return [][2]float64{{40.0, -73.0}, {40.0, -73.001}, {40.001, -73.001}, {40.001, -73.0}}
}

func TestValidate(t *testing.T) {
	ok := Building{ID: 1, HeightM: 30, Coords: square()}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate(valid) err = %v, want nil", err)
	}

	tests := []struct {
		name string
		b    Building
		want error
	}{
		{name: "zero height", b: Building{ID: 2, HeightM: 0, Coords: square()}, want: ErrInvalidHeight},
		{name: "negative height", b: Building{ID: 3, HeightM: -4, Coords: square()}, want: ErrInvalidHeight},
		{name: "nan height", b: Building{ID: 4, HeightM: math.NaN(), Coords: square()}, want: ErrInvalidHeight},
		{name: "two points", b: Building{ID: 5, HeightM: 9, Coords: [][2]float64{{1, 1}, {1, 2}}}, want: ErrTooFewPoints},
		{name: "closed triangle of duplicates", b: Building{ID: 6, HeightM: 9, Coords: [][2]float64{{1, 1}, {1, 1}, {1, 2}, {1, 1}}}, want: ErrTooFewPoints},
		{name: "nan coordinate", b: Building{ID: 7, HeightM: 9, Coords: [][2]float64{{1, 1}, {math.NaN(), 2}, {2, 2}}}, want: ErrInvalidCoordinate},
		{name: "latitude out of range", b: Building{ID: 8, HeightM: 9, Coords: [][2]float64{{91, 1}, {1, 2}, {2, 2}}}, want: ErrInvalidCoordinate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.b.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRingDropsClosingAndRepeatedVertices(t *testing.T) {
	b := Building{Coords: [][2]float64{{0, 0}, {0, 1}, {0, 1}, {1, 1}, {0, 0}}}
	r := b.Ring()
	if len(r) != 3 {
		t.Fatalf("len(Ring()) = %d, want 3 (%v)", len(r), r)
	}
	c := b.Closed()
	if len(c) != 4 || c[0] != c[3] {
		t.Fatalf("Closed() = %v, want 4 points with matching ends", c)
	}
}

func TestEstimateHeight(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want float64
	}{
		{name: "explicit height", tags: map[string]string{"height": "42.5 m"}, want: 42.5},
		{name: "levels", tags: map[string]string{"building:levels": "4"}, want: 12},
		{name: "fallback levels key", tags: map[string]string{"levels": "2"}, want: 6},
		{name: "height wins over levels", tags: map[string]string{"height": "10", "building:levels": "9"}, want: 10},
		{name: "unparsable height uses levels", tags: map[string]string{"height": "tall", "building:levels": "3"}, want: 9},
		{name: "default", tags: map[string]string{}, want: DefaultHeightM},
		{name: "rounded", tags: map[string]string{"height": "12.3456"}, want: 12.35},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateHeight(tc.tags); got != tc.want {
				t.Fatalf("EstimateHeight(%v) = %v, want %v", tc.tags, got, tc.want)
			}
		})
	}
}

func TestFromTags(t *testing.T) {
	var b Building
	b.FromTags(map[string]string{
		"addr:housenumber": "120",
		"addr:street":      "8 Ave SW",
		"building":         "commercial",
		"building:levels":  "5",
	})
	if b.Address != "120 8 Ave SW" {
		t.Fatalf("Address = %q, want %q", b.Address, "120 8 Ave SW")
	}
	if b.Type != "commercial" || b.HeightM != 15 || b.Levels != "5" {
		t.Fatalf("FromTags = %+v, want commercial/15/5", b)
	}
	if n, ok := b.LevelCount(); !ok || n != 5 {
		t.Fatalf("LevelCount() = %v,%v want 5,true", n, ok)
	}

	var anon Building
	anon.FromTags(map[string]string{"name": "Tower"})
	if anon.Address != "Tower" || anon.Type != "building" || anon.Levels != "N/A" {
		t.Fatalf("FromTags(name only) = %+v", anon)
	}
	if _, ok := anon.LevelCount(); ok {
		t.Fatalf("LevelCount() ok for N/A, want false")
	}
}
