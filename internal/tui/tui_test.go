package tui

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urban3d/internal/backend"
	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/raster"
)

var testBBox = geom.BBox{MinX: -114.0715, MinY: 51.0455, MaxX: -114.0665, MaxY: 51.0493}

type stubSource struct{ bs []building.Building }

func (s stubSource) Fetch(context.Context, geom.BBox) ([]building.Building, error) { return s.bs, nil }

func square(id int64, lat, lon, side, height float64) building.Building {
	return building.Building{
		ID:      id,
		Address: "Bldg " + fmtNum(float64(id)),
		Type:    "office",
		HeightM: height,
		Levels:  "10",
		AreaM2:  1000,
		Coords: [][2]float64{
			{lat, lon}, {lat, lon + side}, {lat + side, lon + side}, {lat + side, lon}, {lat, lon},
		},
	}
}

func newTestModel(t *testing.T, bs ...building.Building) Model {
	t.Helper()
	svc := backend.NewLocal(backend.Options{Source: stubSource{bs: bs}})
	m := New(Options{Service: svc, BBox: testBBox, Username: "ann", FPS: 30})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !m.viewer.Running() {
		t.Fatalf("viewer not running after resize: %s", m.status)
	}
	return update(t, m, fetchCmd(context.Background(), svc, testBBox, false, 0)())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// run feeds msg to m and then the message produced by the returned command.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("no command for %T", msg)
	}
	return update(t, m, cmd())
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"office":           "Office",
		"APARTMENTS":       "Apartments",
		"apartments_block": "Apartments Block",
		"semi-detached":    "Semi Detached",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBrailleBits(t *testing.T) {
	b := newBrailleBuf(2, 1)
	b.setPixel(0, 0)
	b.setPixel(1, 3)
	b.setPixel(3, 1)
	b.setPixel(-1, 0)
	b.setPixel(4, 0)
	lines := b.toLines()
	if want := string([]rune{0x2881, 0x2810}); lines[0] != want {
		t.Fatalf("toLines = %q, want %q", lines[0], want)
	}
}

func TestComposeFramebuffer(t *testing.T) {
	sky := raster.Hex(0xf5f7fb)
	roof := raster.Hex(0xff6b6b)
	fb := raster.NewFramebuffer(4, 4)
	fb.Clear(sky)
	// right cell: bottom row of micro-pixels belongs to a building
	for _, x := range []int{2, 3} {
		i := 3*fb.W + x
		fb.Color[i], fb.Kind[i], fb.Owner[i] = roof, raster.Solid, 1
	}

	b := composeFramebuffer(fb, 2, 1)
	if b.m[0][0] != 0 {
		t.Fatalf("plain cell mask = %#x, want 0", b.m[0][0])
	}
	if b.m[0][1] != 0x40|0x80 {
		t.Fatalf("edge cell mask = %#x, want bottom dots", b.m[0][1])
	}
	if b.bg[0][1] != sky.Quantize(quantBits) || b.fg[0][1] != roof.Quantize(quantBits) {
		t.Fatalf("edge cell colours fg=%v bg=%v", b.fg[0][1], b.bg[0][1])
	}
	if got := composeFramebuffer(nil, 3, 2); len(got.m) != 2 || len(got.m[0]) != 3 {
		t.Fatal("nil framebuffer should give an empty buffer of the requested size")
	}
}

func TestComputeLayout(t *testing.T) {
	l := computeLayout(120, 40)
	if l.mapX != sidebarWidth+1 || l.mapY != 1 || l.mapW != 120-sidebarWidth-1 || l.mapH != 37 {
		t.Fatalf("layout = %+v", l)
	}
	if small := computeLayout(5, 3); small.mapW != 10 || small.mapH != 4 {
		t.Fatalf("minimum layout = %+v", small)
	}
}

func TestTooltipText(t *testing.T) {
	b := &building.Building{Address: "100 9 Ave SW", Type: "apartments_block", HeightM: 12.5, AreaM2: 250.75}
	got := tooltipText(b)
	for _, want := range []string{"100 9 Ave SW", "Type: Apartments Block", "Height: 12.5 m", "Levels: n/a", "Area: 250.75 m²"} {
		if !strings.Contains(got, want) {
			t.Fatalf("tooltip %q missing %q", got, want)
		}
	}
	if !strings.Contains(tooltipText(nil), "Click a building") {
		t.Fatal("empty tooltip lacks the hint")
	}
}

func TestFetchBuildsScene(t *testing.T) {
	m := newTestModel(t,
		square(1, 51.047, -114.069, 0.0008, 40),
		square(2, 51.047, -114.0675, 0.0008, 10),
		building.Building{ID: 3, HeightM: 0, Coords: [][2]float64{{51, -114}, {51, -113.99}, {51.01, -114}}},
	)
	if got := len(m.viewer.Meshes()); got != 2 {
		t.Fatalf("meshes = %d, want 2", got)
	}
	if m.source != backend.SourceLive || !strings.Contains(m.status, "1 skipped") {
		t.Fatalf("source=%q status=%q", m.source, m.status)
	}
	if out := m.View(); !strings.Contains(out, "3 buildings") {
		t.Fatalf("header lacks building count:\n%s", out)
	}
}

func TestQueryHighlights(t *testing.T) {
	m := newTestModel(t, square(1, 51.047, -114.069, 0.0008, 40), square(2, 51.047, -114.0675, 0.0008, 10))
	m.setFocus(focusQuery)
	m.queryIn.SetValue("height >= 20")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.viewer.HighlightIDs(); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("highlight = %v, want [1]", got)
	}

	// a result for a superseded query is ignored
	m = update(t, m, filterMsg{seq: m.filterSeq - 1, res: &backend.FilterResult{MatchingIDs: []int64{2}}})
	if got := m.viewer.HighlightIDs(); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("stale result applied: %v", got)
	}

	m.queryIn.SetValue("the tallest one")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.viewer.HighlightIDs()) != 0 || m.status != backend.NoFilterReason {
		t.Fatalf("unparsed query: highlight=%v status=%q", m.viewer.HighlightIDs(), m.status)
	}
}

func TestClickPicksAndDragOrbits(t *testing.T) {
	m := newTestModel(t, square(7, 51.047, -114.069, 0.0008, 40))
	m = update(t, m, frameMsg(time.Now()))
	l := computeLayout(m.width, m.height)
	x, y := l.mapX+l.mapW/2, l.mapY+l.mapH/2

	m = update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if b := m.sel.Selected(); b == nil || b.ID != 7 {
		t.Fatalf("selected = %+v, status %q", b, m.status)
	}
	if got := m.viewer.HighlightIDs(); !reflect.DeepEqual(got, []int64{7}) {
		t.Fatalf("highlight = %v, want [7]", got)
	}

	before := m.viewer.Camera().Position
	m = update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: x + 6, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	for i := 0; i < 5; i++ {
		m = update(t, m, frameMsg(time.Now()))
	}
	if m.viewer.Camera().Position.ApproxEqual(before) {
		t.Fatal("drag did not orbit the camera")
	}
	if b := m.sel.Selected(); b == nil || b.ID != 7 {
		t.Fatal("drag release must not change the pick")
	}
}

func TestProjectRoundTrip(t *testing.T) {
	m := newTestModel(t, square(1, 51.047, -114.069, 0.0008, 40), square(2, 51.047, -114.0675, 0.0008, 10))
	m.queryIn.SetValue("height < 20")
	m.setFocus(focusProjectName)
	m.projectIn.SetValue("low rise")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.status, `saved project "low rise"`) {
		t.Fatalf("status = %q", m.status)
	}
	// the save reloads the project list
	m = run(t, m, savedMsg{id: 1, name: "low rise"})
	if n := len(m.projects.Items()); n != 1 {
		t.Fatalf("projects = %d, want 1", n)
	}

	m.setFocus(focusProjects)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.viewer.HighlightIDs(); !reflect.DeepEqual(got, []int64{2}) {
		t.Fatalf("highlight after load = %v, want [2]", got)
	}
	if m.queryIn.Value() != "height < 20" {
		t.Fatalf("query input = %q", m.queryIn.Value())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.confirmDrop == nil {
		t.Fatal("x did not ask for confirmation")
	}
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if !strings.Contains(m.status, "deleted project #1") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestSaveNeedsUsername(t *testing.T) {
	m := newTestModel(t)
	m.username.SetValue("")
	m.setFocus(focusProjectName)
	m.projectIn.SetValue("p")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || next.(Model).status != "enter a username first" {
		t.Fatalf("status = %q", next.(Model).status)
	}
}

func TestStaleFetchIgnored(t *testing.T) {
	m := newTestModel(t, square(1, 51.047, -114.069, 0.0008, 40))
	m = update(t, m, buildingsMsg{seq: m.fetchSeq + 5, res: &backend.BuildingsResult{}})
	if len(m.viewer.Meshes()) != 1 {
		t.Fatal("stale fetch replaced the scene")
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m := newTestModel(t)
	want := []focusArea{focusUsername, focusQuery, focusProjectName, focusProjects, focusViewport}
	for _, f := range want {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != f {
			t.Fatalf("focus = %s, want %s", m.focus, f)
		}
	}
}
