package tui

import (
	"context"
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"urban3d/internal/backend"
	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
	"urban3d/internal/scene"
	"urban3d/internal/selection"
)

type focusArea int

const (
	focusViewport focusArea = iota
	focusUsername
	focusQuery
	focusProjectName
	focusProjects
	focusCount
)

func (f focusArea) String() string {
	switch f {
	case focusUsername:
		return "username"
	case focusQuery:
		return "query"
	case focusProjectName:
		return "project name"
	case focusProjects:
		return "projects"
	}
	return "viewport"
}

// Options wires the client to its collaborators.
type Options struct {
	Service  backend.Service
	Logger   logging.Logger
	Metrics  scene.Recorder
	BBox     geom.BBox
	Username string
	FPS      int
	// DataFile, when set, is loaded instead of fetching from the service.
	DataFile string
}

// surface is shared by every copy of the Model so the viewer always reads
// the latest viewport size.
type surface struct{ w, h int }

func (s *surface) Size() (int, int) { return s.w, s.h }

type dragState struct {
	active bool
	button tea.MouseButton
	lastX  int
	lastY  int
	moved  bool
}

type Model struct {
	width  int
	height int

	helpVisible bool
	status      string
	warning     string

	ctx  context.Context
	svc  backend.Service
	log  logging.Logger
	opts Options

	// Scene
	viewer    *scene.Viewer
	surf      *surface
	sel       *selection.State
	buildings []building.Building
	source    string
	fetchSeq  int
	filterSeq int
	loading   bool

	// Sidebar
	focus       focusArea
	username    textinput.Model
	queryIn     textinput.Model
	projectIn   textinput.Model
	projects    list.Model
	confirmDrop *projectItem

	drag dragState

	// attributes table
	showAttrs bool
	tbl       table.Model

	// file browser
	showFiles bool
	cwd       string
	files     list.Model
	selPath   string
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "› "
	return ti
}

func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	m := Model{
		helpVisible: true,
		status:      "urban3d ready",
		ctx:         context.Background(),
		svc:         opts.Service,
		log:         opts.Logger.With(logging.String("component", "tui")),
		opts:        opts,
		surf:        &surface{},
		sel:         &selection.State{},
		selPath:     opts.DataFile,
	}
	m.viewer = scene.NewViewer(scene.Options{Logger: opts.Logger, Metrics: opts.Metrics})
	sel := m.sel
	m.viewer.OnPick(func(b *building.Building) { sel.Pick(b) })

	m.username = newInput("username", 64)
	m.username.SetValue(opts.Username)
	m.queryIn = newInput("e.g. buildings over 100 feet", 200)
	m.projectIn = newInput("project name", 64)

	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	d.SetSpacing(0)
	m.projects = list.New(nil, d, 0, 0)
	m.projects.Title = "Saved projects"
	m.projects.SetShowHelp(false)
	m.projects.SetShowStatusBar(false)
	m.projects.SetFilteringEnabled(false)

	fd := list.NewDefaultDelegate()
	fd.ShowDescription = false
	m.files = list.New(nil, fd, 0, 0)
	m.files.Title = "Building files"
	m.files.SetShowHelp(false)
	m.files.SetShowStatusBar(false)
	m.files.SetFilteringEnabled(true)
	m.cwd, _ = os.Getwd()

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

// Init fetches buildings (or loads DATA_FILE), lists the user's projects and
// starts the frame loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameTick(m.opts.FPS)}
	if m.selPath != "" {
		cmds = append(cmds, loadFileCmd(m.selPath, m.opts.BBox, 0))
	} else if m.svc != nil {
		cmds = append(cmds, fetchCmd(m.ctx, m.svc, m.opts.BBox, false, 0))
	}
	if m.svc != nil && m.username.Value() != "" {
		cmds = append(cmds, projectsCmd(m.ctx, m.svc, m.username.Value()))
	}
	return tea.Batch(cmds...)
}

// Close releases the viewer. Safe to call more than once.
func (m Model) Close() {
	m.viewer.Dispose()
}

// applyHighlight pushes the selection's highlight set to the viewer.
func (m *Model) applyHighlight() {
	m.viewer.SetHighlightIDs(m.sel.Highlight())
	if m.showAttrs {
		m.refreshAttrs()
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.username.Blur()
	m.queryIn.Blur()
	m.projectIn.Blur()
	switch f {
	case focusUsername:
		m.username.Focus()
	case focusQuery:
		m.queryIn.Focus()
	case focusProjectName:
		m.projectIn.Focus()
	}
	m.confirmDrop = nil
}
