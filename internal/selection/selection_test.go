package selection

import (
	"reflect"
	"testing"

	"urban3d/internal/building"
)

func TestPrecedence(t *testing.T) {
	b7 := &building.Building{ID: 7}
	tests := []struct {
		name   string
		steps  func(s *State)
		want   []int64
		picked bool
		detail bool
	}{
		{
			name:   "pick alone",
			steps:  func(s *State) { s.Pick(b7) },
			want:   []int64{7},
			picked: true,
			detail: true,
		},
		{
			name:   "query then pick unions",
			steps:  func(s *State) { s.Query([]int64{3, 1, 3}); s.Pick(b7) },
			want:   []int64{1, 3, 7},
			picked: true,
			detail: true,
		},
		{
			name:   "new query clears pick but keeps details",
			steps:  func(s *State) { s.Pick(b7); s.Query([]int64{2}) },
			want:   []int64{2},
			detail: true,
		},
		{
			name:   "project load clears pick",
			steps:  func(s *State) { s.Pick(b7); s.ProjectLoaded([]int64{4, 5}) },
			want:   []int64{4, 5},
			detail: true,
		},
		{
			name:  "fetch clears both",
			steps: func(s *State) { s.Query([]int64{1}); s.Pick(b7); s.Fetched() },
			want:  nil,
		},
		{
			name:   "miss keeps pick",
			steps:  func(s *State) { s.Pick(b7); s.Pick(nil) },
			want:   []int64{7},
			picked: true,
			detail: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s State
			tc.steps(&s)
			if got := s.Highlight(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Highlight() = %v, want %v", got, tc.want)
			}
			if _, ok := s.Picked(); ok != tc.picked {
				t.Fatalf("Picked() ok = %v, want %v", ok, tc.picked)
			}
			if got := s.Selected() != nil; got != tc.detail {
				t.Fatalf("Selected() present = %v, want %v", got, tc.detail)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	if got := Union([]int64{3, 1}, nil, []int64{1, 2}); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("Union = %v", got)
	}
	if got := Union(); got != nil {
		t.Fatalf("Union() = %v, want nil", got)
	}
}
