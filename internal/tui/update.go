package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"urban3d/internal/logging"
	"urban3d/internal/store"
)

// rotateStep is the keyboard orbit increment in radians.
const rotateStep = math.Pi / 36

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
	case frameMsg:
		m.viewer.Frame()
		return m, frameTick(m.opts.FPS)
	case buildingsMsg:
		m.onBuildings(msg)
	case filterMsg:
		m.onFilter(msg)
	case projectsMsg:
		if msg.username != strings.TrimSpace(m.username.Value()) {
			return m, nil
		}
		if msg.err != nil {
			m.status = "projects: " + msg.err.Error()
			return m, nil
		}
		cmd := m.projects.SetItems(projectItems(msg.list))
		return m, cmd
	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("saved project %q (#%d)", msg.name, msg.id)
		m.projectIn.Reset()
		return m, m.reloadProjects()
	case projectLoadedMsg:
		m.onProjectLoaded(msg)
	case deletedMsg:
		switch {
		case errors.Is(msg.err, store.ErrUserNotFound):
			m.status = "delete failed: user not found"
		case msg.err != nil:
			m.status = "delete failed: " + msg.err.Error()
		case msg.deleted == 0:
			m.status = fmt.Sprintf("project #%d not deleted", msg.id)
		default:
			m.status = fmt.Sprintf("deleted project #%d", msg.id)
		}
		return m, m.reloadProjects()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

// resizeViewport sizes the render surface to the map area, initialising the
// viewer on the first usable size.
func (m *Model) resizeViewport() {
	l := computeLayout(m.width, m.height)
	m.surf.w, m.surf.h = l.mapW*2, l.mapH*4
	if m.viewer.Running() {
		m.viewer.Resize()
		return
	}
	if err := m.viewer.Init(m.surf); err != nil {
		m.status = "viewer: " + err.Error()
		m.log.Error(m.ctx, "viewer init failed", logging.Err(err))
	}
}

func (m *Model) onBuildings(msg buildingsMsg) {
	if msg.seq != m.fetchSeq {
		return
	}
	m.loading = false
	if msg.err != nil {
		m.status = "fetch failed: " + msg.err.Error()
		m.log.Warn(m.ctx, "building fetch failed", logging.Err(msg.err))
		return
	}
	res := msg.res
	m.buildings = res.Buildings
	m.source = res.Source
	m.warning = res.Warning
	// pending query results refer to the old list
	m.filterSeq++
	m.sel.Fetched()
	stats := m.viewer.LoadData(res.Buildings)
	m.applyHighlight()
	m.status = fmt.Sprintf("loaded %d buildings from %s", stats.Built, res.Source)
	if n := len(stats.Skipped); n > 0 {
		m.status += fmt.Sprintf(", %d skipped", n)
	}
}

func (m *Model) onFilter(msg filterMsg) {
	if msg.seq != m.filterSeq {
		return
	}
	if msg.err != nil {
		m.status = "query failed: " + msg.err.Error()
		return
	}
	m.sel.Query(msg.res.MatchingIDs)
	m.applyHighlight()
	if msg.res.Filter == nil {
		m.status = msg.res.Reason
		return
	}
	m.status = fmt.Sprintf("%s: %d matches", msg.res.Filter, len(msg.res.MatchingIDs))
}

func (m *Model) onProjectLoaded(msg projectLoadedMsg) {
	if msg.seq != m.filterSeq {
		return
	}
	switch {
	case errors.Is(msg.err, store.ErrNotFound):
		m.status = fmt.Sprintf("project #%d not found", msg.id)
		return
	case msg.err != nil:
		m.status = "load failed: " + msg.err.Error()
		return
	}
	m.sel.ProjectLoaded(msg.ids)
	m.applyHighlight()
	if len(msg.queries) > 0 {
		m.queryIn.SetValue(msg.queries[len(msg.queries)-1])
	}
	m.status = fmt.Sprintf("project #%d: %d queries, %d matches", msg.id, len(msg.queries), len(msg.ids))
}

func (m *Model) reloadProjects() tea.Cmd {
	user := strings.TrimSpace(m.username.Value())
	if m.svc == nil || user == "" {
		return m.projects.SetItems(nil)
	}
	return projectsCmd(m.ctx, m.svc, user)
}

func (m *Model) refetch(refresh bool) tea.Cmd {
	m.fetchSeq++
	m.loading = true
	if m.svc == nil || (m.selPath != "" && !refresh) {
		if m.selPath == "" {
			m.loading = false
			m.status = "no data source"
			return nil
		}
		m.status = "loading " + m.selPath
		return loadFileCmd(m.selPath, m.opts.BBox, m.fetchSeq)
	}
	m.selPath = ""
	m.status = "fetching buildings…"
	return fetchCmd(m.ctx, m.svc, m.opts.BBox, refresh, m.fetchSeq)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showFiles {
		return m.updateFiles(msg)
	}
	if m.showAttrs {
		switch key {
		case "a", "esc", "q":
			m.showAttrs = false
			return m, nil
		}
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	switch key {
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}
	switch m.focus {
	case focusUsername, focusQuery, focusProjectName:
		return m.updateInput(msg)
	case focusProjects:
		return m.updateProjects(msg)
	}
	return m.updateViewport(msg)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setFocus(focusViewport)
		return m, nil
	case "enter":
		return m.submit()
	}
	var cmd tea.Cmd
	switch m.focus {
	case focusUsername:
		m.username, cmd = m.username.Update(msg)
	case focusQuery:
		m.queryIn, cmd = m.queryIn.Update(msg)
	case focusProjectName:
		m.projectIn, cmd = m.projectIn.Update(msg)
	}
	return m, cmd
}

// submit handles Enter in one of the sidebar inputs.
func (m Model) submit() (tea.Model, tea.Cmd) {
	user := strings.TrimSpace(m.username.Value())
	switch m.focus {
	case focusUsername:
		if user == "" {
			m.status = "username cleared"
		} else {
			m.status = "listing projects for " + user
		}
		return m, m.reloadProjects()
	case focusQuery:
		text := strings.TrimSpace(m.queryIn.Value())
		if text == "" {
			m.status = "enter a query"
			return m, nil
		}
		if m.svc == nil {
			m.status = "no backend for queries"
			return m, nil
		}
		m.filterSeq++
		m.status = "running query…"
		return m, filterCmd(m.ctx, m.svc, text, m.buildings, m.filterSeq)
	case focusProjectName:
		name := strings.TrimSpace(m.projectIn.Value())
		switch {
		case user == "":
			m.status = "enter a username first"
			return m, nil
		case name == "":
			m.status = "enter a project name"
			return m, nil
		case m.svc == nil:
			m.status = "no backend for projects"
			return m, nil
		}
		m.status = "saving " + name
		return m, saveCmd(m.ctx, m.svc, user, name, strings.TrimSpace(m.queryIn.Value()))
	}
	return m, nil
}

func (m Model) updateProjects(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.confirmDrop != nil {
		it := m.confirmDrop
		m.confirmDrop = nil
		if key != "y" {
			m.status = "delete cancelled"
			return m, nil
		}
		user := strings.TrimSpace(m.username.Value())
		if user == "" || m.svc == nil {
			m.status = "enter a username first"
			return m, nil
		}
		return m, deleteCmd(m.ctx, m.svc, user, it.id)
	}
	switch key {
	case "esc":
		m.setFocus(focusViewport)
		return m, nil
	case "enter":
		it, ok := m.projects.SelectedItem().(projectItem)
		if !ok || m.svc == nil {
			return m, nil
		}
		m.filterSeq++
		m.status = "loading project " + it.name
		return m, loadProjectCmd(m.ctx, m.svc, it.id, m.buildings, m.filterSeq)
	case "x", "delete":
		if it, ok := m.projects.SelectedItem().(projectItem); ok {
			m.confirmDrop = &it
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.projects, cmd = m.projects.Update(msg)
	return m, cmd
}

func (m Model) updateViewport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "h":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "r":
		return m, m.refetch(true)
	case "o":
		m.showFiles = true
		m.refreshDir()
		return m, nil
	case "a":
		m.showAttrs = true
		m.refreshAttrs()
		return m, nil
	}

	if !m.viewer.Running() {
		return m, nil
	}
	ctrl := m.viewer.Controls()
	pan := float64(m.surf.h) / 10
	switch key {
	case "left":
		ctrl.RotateLeft(rotateStep)
	case "right":
		ctrl.RotateLeft(-rotateStep)
	case "up":
		ctrl.RotateUp(rotateStep)
	case "down":
		ctrl.RotateUp(-rotateStep)
	case "shift+left", "A":
		ctrl.Pan(pan, 0, m.surf.h)
	case "shift+right", "D":
		ctrl.Pan(-pan, 0, m.surf.h)
	case "shift+up", "W":
		ctrl.Pan(0, pan, m.surf.h)
	case "shift+down", "S":
		ctrl.Pan(0, -pan, m.surf.h)
	case "+", "=":
		ctrl.ZoomIn()
	case "-", "_":
		ctrl.ZoomOut()
	case "f":
		m.viewer.Fit()
		m.status = "view reset"
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.viewer.Running() || m.showAttrs || m.showFiles {
		return m, nil
	}
	l := computeLayout(m.width, m.height)
	cx, cy := msg.X-l.mapX, msg.Y-l.mapY
	inMap := cx >= 0 && cy >= 0 && cx < l.mapW && cy < l.mapH
	ctrl := m.viewer.Controls()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if inMap {
				ctrl.ZoomIn()
			}
		case tea.MouseButtonWheelDown:
			if inMap {
				ctrl.ZoomOut()
			}
		case tea.MouseButtonLeft, tea.MouseButtonRight, tea.MouseButtonMiddle:
			if inMap {
				m.drag = dragState{active: true, button: msg.Button, lastX: msg.X, lastY: msg.Y}
				if m.focus != focusViewport {
					m.setFocus(focusViewport)
				}
			}
		}
	case tea.MouseActionMotion:
		if !m.drag.active {
			return m, nil
		}
		dx, dy := msg.X-m.drag.lastX, msg.Y-m.drag.lastY
		if dx == 0 && dy == 0 {
			return m, nil
		}
		m.drag.moved = true
		m.drag.lastX, m.drag.lastY = msg.X, msg.Y
		// one cell is 2x4 micro-pixels
		px, py := float64(dx*2), float64(dy*4)
		if m.drag.button == tea.MouseButtonLeft {
			ctrl.Rotate(px, py, m.surf.h)
		} else {
			ctrl.Pan(px, py, m.surf.h)
		}
	case tea.MouseActionRelease:
		if m.drag.active && m.drag.button == tea.MouseButtonLeft && !m.drag.moved && inMap {
			m.click(cx, cy)
		}
		m.drag = dragState{}
	}
	return m, nil
}

// click picks the building under map cell (cx, cy).
func (m *Model) click(cx, cy int) {
	b := m.viewer.Click(float64(cx*2+1), float64(cy*4+2))
	if b == nil {
		m.status = "no building here"
		return
	}
	m.applyHighlight()
	m.status = fmt.Sprintf("picked #%d %s", b.ID, b.Address)
}
