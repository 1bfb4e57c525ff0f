// Package selection combines query results and the manually picked building
// into the highlight set shown by the viewer.
//
// Precedence: a new query result or a project load replaces the query ids and
// clears the manual pick; a fresh building fetch clears both. Nothing else
// clears the pick. The picked building's details stay available for display
// until the next pick or fetch.
package selection

import (
	"sort"

	"urban3d/internal/building"
)

type State struct {
	query    []int64
	picked   int64
	hasPick  bool
	selected *building.Building
}

// Query replaces the query highlight and clears the manual pick.
func (s *State) Query(ids []int64) {
	s.query = dedupe(ids)
	s.hasPick = false
}

// ProjectLoaded applies the union of a loaded project's filter results.
func (s *State) ProjectLoaded(ids []int64) {
	s.Query(ids)
}

// Fetched resets everything after a new building list arrives.
func (s *State) Fetched() {
	s.query = nil
	s.hasPick = false
	s.selected = nil
}

// Pick records a clicked building. A miss (nil) changes nothing.
func (s *State) Pick(b *building.Building) {
	if b == nil {
		return
	}
	s.picked = b.ID
	s.hasPick = true
	s.selected = b
}

// Picked returns the manually picked id, if any.
func (s *State) Picked() (int64, bool) { return s.picked, s.hasPick }

// Selected is the last picked building, kept for the details panel.
func (s *State) Selected() *building.Building { return s.selected }

// QueryIDs returns the ids of the current query highlight.
func (s *State) QueryIDs() []int64 { return append([]int64(nil), s.query...) }

// Highlight is the union of the query ids and the picked id, sorted.
func (s *State) Highlight() []int64 {
	ids := append([]int64(nil), s.query...)
	if s.hasPick {
		ids = append(ids, s.picked)
	}
	return dedupe(ids)
}

// Union merges id lists without duplicates, sorted.
func Union(lists ...[]int64) []int64 {
	var all []int64
	for _, l := range lists {
		all = append(all, l...)
	}
	return dedupe(all)
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
