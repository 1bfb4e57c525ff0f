package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"urban3d/internal/building"
	"urban3d/internal/store"
)

const sidebarWidth = 34

type projectItem struct {
	id      int64
	name    string
	created string
}

func (p projectItem) Title() string       { return p.name }
func (p projectItem) Description() string { return fmt.Sprintf("#%d  %s", p.id, p.created) }
func (p projectItem) FilterValue() string { return p.name }

func projectItems(rows []store.Summary) []list.Item {
	items := make([]list.Item, 0, len(rows))
	for _, s := range rows {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		items = append(items, projectItem{id: s.ID, name: s.Name, created: created})
	}
	return items
}

// tooltipText describes the picked building.
func tooltipText(b *building.Building) string {
	if b == nil {
		return dimStyle.Render("Click a building to see details")
	}
	levels := b.Levels
	if levels == "" {
		levels = "n/a"
	}
	lines := []string{
		tooltipTitle.Render(b.Address),
		"Type: " + titleCase(b.Type),
		"Height: " + fmtNum(b.HeightM) + " m",
		"Levels: " + levels,
		"Area: " + fmtNum(b.AreaM2) + " m²",
	}
	return strings.Join(lines, "\n")
}

func (m Model) sectionBox(f focusArea, content string) string {
	st := boxStyle
	if m.focus == f {
		st = focusedBox
	}
	return st.Width(sidebarWidth - 2).Render(content)
}

// renderSidebar lays out the inputs, the project list and the tooltip in a
// column of the given height.
func (m *Model) renderSidebar(height int) string {
	inputW := sidebarWidth - 8
	m.username.Width = inputW
	m.queryIn.Width = inputW
	m.projectIn.Width = inputW

	user := m.sectionBox(focusUsername, labelStyle.Render("Username")+"\n"+m.username.View())
	query := m.sectionBox(focusQuery, labelStyle.Render("Query")+"\n"+m.queryIn.View())
	proj := m.sectionBox(focusProjectName, labelStyle.Render("Save as")+"\n"+m.projectIn.View())
	tip := boxStyle.Width(sidebarWidth - 2).Render(tooltipText(m.sel.Selected()))

	used := lipgloss.Height(user) + lipgloss.Height(query) + lipgloss.Height(proj) + lipgloss.Height(tip)
	listH := max(3, height-used-2)
	m.projects.SetSize(sidebarWidth-6, listH)
	var listView string
	if len(m.projects.Items()) == 0 {
		hint := "no saved projects"
		if m.username.Value() == "" {
			hint = "enter a username to list projects"
		}
		listView = titleStyle.Render("Saved projects") + "\n" + dimStyle.Render(hint)
		listView = lipgloss.NewStyle().Height(listH).Render(listView)
	} else {
		listView = m.projects.View()
	}
	if m.confirmDrop != nil {
		listView += "\n" + warnStyle.Render(fmt.Sprintf("delete %q? y/n", m.confirmDrop.name))
	}
	projects := m.sectionBox(focusProjects, listView)

	col := lipgloss.JoinVertical(lipgloss.Left, user, query, proj, projects, tip)
	return lipgloss.NewStyle().Width(sidebarWidth).Height(height).MaxHeight(height).Render(col)
}
