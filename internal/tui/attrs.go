package tui

import (
	"fmt"

	table "github.com/charmbracelet/bubbles/table"

	"urban3d/internal/building"
)

var attrColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "ID", Width: 12},
	{Title: "Address", Width: 24},
	{Title: "Type", Width: 14},
	{Title: "Height m", Width: 9},
	{Title: "Levels", Width: 7},
	{Title: "Area m²", Width: 10},
}

// attrRows returns one table row per building.
func attrRows(bs []*building.Building) []table.Row {
	rows := make([]table.Row, 0, len(bs))
	for i, b := range bs {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", b.ID),
			truncate(b.Address, attrColumns[2].Width),
			truncate(titleCase(b.Type), attrColumns[3].Width),
			fmtNum(b.HeightM),
			b.Levels,
			fmtNum(b.AreaM2),
		})
	}
	return rows
}

// highlighted returns the buildings currently drawn in the highlight colour.
func (m *Model) highlighted() []*building.Building {
	ids := m.viewer.HighlightIDs()
	out := make([]*building.Building, 0, len(ids))
	for _, id := range ids {
		if mesh, ok := m.viewer.Mesh(id); ok {
			out = append(out, mesh.Building)
		}
	}
	return out
}

// refreshAttrs rebuilds the table from the highlighted buildings.
func (m *Model) refreshAttrs() {
	bs := m.highlighted()
	if len(bs) == 0 {
		// Do not touch table internals here to avoid re-render during SetColumns
		m.showAttrs = false
		m.status = "no highlighted buildings"
		return
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(attrColumns)
	m.tbl.SetRows(attrRows(bs))
	m.status = fmt.Sprintf("%d highlighted buildings", len(bs))
}
