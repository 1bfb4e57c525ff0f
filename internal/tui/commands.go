package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urban3d/internal/backend"
	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/scene"
	"urban3d/internal/selection"
	"urban3d/internal/store"
)

// Results of background work. seq ties a result to the request that started
// it; results of superseded requests are dropped.
type (
	frameMsg time.Time

	buildingsMsg struct {
		seq int
		res *backend.BuildingsResult
		err error
	}
	filterMsg struct {
		seq  int
		text string
		res  *backend.FilterResult
		err  error
	}
	projectsMsg struct {
		username string
		list     []store.Summary
		err      error
	}
	savedMsg struct {
		id   int64
		name string
		err  error
	}
	projectLoadedMsg struct {
		seq     int
		id      int64
		queries []string
		ids     []int64
		err     error
	}
	deletedMsg struct {
		id      int64
		deleted int64
		err     error
	}
)

// savedFilter is one stored query of a project.
type savedFilter struct {
	Query string `json:"query"`
}

func frameTick(fps int) tea.Cmd {
	return tea.Tick(scene.FrameInterval(fps), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func fetchCmd(ctx context.Context, svc backend.Service, bb geom.BBox, refresh bool, seq int) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Buildings(ctx, bb, refresh)
		return buildingsMsg{seq: seq, res: res, err: err}
	}
}

// loadFileCmd reads a local building file and reports it like a fetch.
func loadFileCmd(path string, bb geom.BBox, seq int) tea.Cmd {
	return func() tea.Msg {
		bs, err := geom.Load(path, bb)
		if err != nil {
			return buildingsMsg{seq: seq, err: err}
		}
		return buildingsMsg{seq: seq, res: &backend.BuildingsResult{
			BBox:      backend.WireBBox(bb),
			Count:     len(bs),
			Buildings: bs,
			Source:    "file",
		}}
	}
}

func filterCmd(ctx context.Context, svc backend.Service, text string, bs []building.Building, seq int) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Filter(ctx, text, bs)
		return filterMsg{seq: seq, text: text, res: res, err: err}
	}
}

func projectsCmd(ctx context.Context, svc backend.Service, username string) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.Projects(ctx, username)
		return projectsMsg{username: username, list: list, err: err}
	}
}

func saveCmd(ctx context.Context, svc backend.Service, username, name, query string) tea.Cmd {
	return func() tea.Msg {
		filters, err := json.Marshal([]savedFilter{{Query: query}})
		if err != nil {
			return savedMsg{name: name, err: err}
		}
		id, err := svc.SaveProject(ctx, username, name, filters)
		return savedMsg{id: id, name: name, err: err}
	}
}

// loadProjectCmd re-runs every stored query of a project against bs and
// returns the union of the matches.
func loadProjectCmd(ctx context.Context, svc backend.Service, id int64, bs []building.Building, seq int) tea.Cmd {
	return func() tea.Msg {
		raw, err := svc.LoadProject(ctx, id)
		if err != nil {
			return projectLoadedMsg{seq: seq, id: id, err: err}
		}
		var filters []savedFilter
		if err := json.Unmarshal(raw, &filters); err != nil {
			return projectLoadedMsg{seq: seq, id: id, err: fmt.Errorf("project %d: bad filters: %w", id, err)}
		}
		var (
			queries []string
			ids     []int64
		)
		for _, f := range filters {
			res, err := svc.Filter(ctx, f.Query, bs)
			if err != nil {
				return projectLoadedMsg{seq: seq, id: id, err: err}
			}
			queries = append(queries, f.Query)
			ids = selection.Union(ids, res.MatchingIDs)
		}
		return projectLoadedMsg{seq: seq, id: id, queries: queries, ids: ids}
	}
}

func deleteCmd(ctx context.Context, svc backend.Service, username string, id int64) tea.Cmd {
	return func() tea.Msg {
		n, err := svc.DeleteProject(ctx, username, id)
		return deletedMsg{id: id, deleted: n, err: err}
	}
}
