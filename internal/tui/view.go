package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 1
	footerHeight = 2
)

// layout is the cell geometry of one frame. The map sits right of the
// sidebar with a one-column gap.
type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

func computeLayout(w, h int) layout {
	contentH := max(4, h-headerHeight-footerHeight)
	contentW := max(10, w)
	return layout{
		contentW: contentW,
		contentH: contentH,
		mapX:     sidebarWidth + 1,
		mapY:     headerHeight,
		mapW:     max(10, contentW-sidebarWidth-1),
		mapH:     contentH,
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := computeLayout(m.width, m.height)

	// Header
	title := titleStyle.Render(" urban3d ─ 3D building explorer ")
	info := ""
	if m.source != "" {
		info = dimStyle.Render(fmt.Sprintf("  %d buildings · %s", len(m.buildings), m.source))
	}
	if m.loading {
		info += dimStyle.Render("  loading…")
	}
	header := lipgloss.NewStyle().Width(l.contentW).MaxHeight(headerHeight).Render(title + info)

	sidebar := m.renderSidebar(l.contentH)

	var mapView string
	switch {
	case m.showFiles:
		m.files.SetSize(min(48, l.mapW-4), l.mapH-4)
		box := boxStyle.Render(m.files.View())
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, box)
	case m.showAttrs:
		// Render attributes table centered in the map area
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 2
		}
		maxW := min(l.mapW, max(32, colW+4))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(l.mapH-4, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	default:
		mapView = lipgloss.NewStyle().Width(l.mapW).Height(l.mapH).Render(m.renderViewport(l.mapW, l.mapH))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)

	// Footer / help
	status := dimStyle.Render(" " + m.status + " ")
	if m.warning != "" {
		status += warnStyle.Render(" ⚠ " + m.warning + " ")
	}
	footer := lipgloss.NewStyle().Width(l.contentW).MaxHeight(footerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, status, m.renderHelp()))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(l.contentW).Height(m.height).MaxHeight(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	var keys []string
	switch {
	case m.showFiles:
		keys = []string{"Enter load", "/ filter", "Esc close"}
	case m.showAttrs:
		keys = []string{"↑↓ scroll", "a/Esc close"}
	case m.focus == focusProjects:
		keys = []string{"Enter load", "x delete", "Tab next", "Esc map"}
	case m.focus != focusViewport:
		keys = []string{"Enter " + submitVerb(m.focus), "Tab next", "Esc map"}
	default:
		keys = []string{
			"drag/←↑↓→ orbit",
			"right-drag/⇧+arrows pan",
			"wheel/+- zoom",
			"click pick",
			"f fit",
			"r refresh",
			"a attrs",
			"o open",
			"Tab sidebar",
			"h help",
			"q quit",
		}
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}

func submitVerb(f focusArea) string {
	switch f {
	case focusUsername:
		return "list projects"
	case focusQuery:
		return "run query"
	case focusProjectName:
		return "save project"
	}
	return ""
}
