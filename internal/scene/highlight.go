package scene

import "sort"

// SetHighlightIDs replaces the highlight set and recolours every mesh. Ids
// without a mesh are ignored; nil clears the set.
func (v *Viewer) SetHighlightIDs(ids []int64) {
	v.highlight = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		v.highlight[id] = struct{}{}
	}
	v.applyHighlight()
}

// HighlightIDs returns the ids of the meshes currently highlighted, sorted.
func (v *Viewer) HighlightIDs() []int64 {
	var out []int64
	for _, m := range v.meshes {
		if m.Highlighted {
			out = append(out, m.ID())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *Viewer) applyHighlight() {
	n := 0
	for _, m := range v.meshes {
		_, on := v.highlight[m.ID()]
		m.Highlighted = on
		if on {
			m.Color = v.opts.Highlight
			n++
		} else {
			m.Color = v.opts.Default
		}
	}
	v.opts.Metrics.Highlighted(n)
}
