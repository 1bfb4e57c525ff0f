// Package store persists named projects (saved query filters) per user.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("store: project not found")
	ErrUserNotFound = errors.New("store: user not found")
	ErrMissingField = errors.New("store: username and project name required")
)

// Summary is one row of a user's project list.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Projects is implemented by the postgres and in-memory stores.
type Projects interface {
	// SaveProject creates the user on first use and returns the new project id.
	SaveProject(ctx context.Context, username, name string, filters json.RawMessage) (int64, error)
	// Projects lists a user's projects newest first; unknown users have none.
	Projects(ctx context.Context, username string) ([]Summary, error)
	LoadProject(ctx context.Context, id int64) (json.RawMessage, error)
	// DeleteProject removes id if username owns it and reports the rows removed.
	DeleteProject(ctx context.Context, username string, id int64) (int64, error)
	Close() error
}

func normalizeFilters(f json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(f))) == 0 || string(f) == "null" {
		return json.RawMessage("[]")
	}
	return f
}

// Memory keeps everything in process.
type Memory struct {
	mu       sync.Mutex
	users    map[string]int64
	projects []memProject
	nextUser int64
	nextID   int64
	now      func() time.Time
}

type memProject struct {
	id      int64
	userID  int64
	name    string
	filters json.RawMessage
	created time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{users: make(map[string]int64), now: now}
}

func (m *Memory) SaveProject(_ context.Context, username, name string, filters json.RawMessage) (int64, error) {
	if username == "" || name == "" {
		return 0, ErrMissingField
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.users[username]
	if !ok {
		m.nextUser++
		uid = m.nextUser
		m.users[username] = uid
	}
	m.nextID++
	f := append(json.RawMessage(nil), normalizeFilters(filters)...)
	m.projects = append(m.projects, memProject{id: m.nextID, userID: uid, name: name, filters: f, created: m.now().UTC()})
	return m.nextID, nil
}

func (m *Memory) Projects(_ context.Context, username string) ([]Summary, error) {
	out := []Summary{}
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.users[username]
	if !ok {
		return out, nil
	}
	for _, p := range m.projects {
		if p.userID == uid {
			out = append(out, Summary{ID: p.id, Name: p.name, CreatedAt: p.created})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) LoadProject(_ context.Context, id int64) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.id == id {
			return append(json.RawMessage(nil), p.filters...), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteProject(_ context.Context, username string, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.users[username]
	if !ok {
		return 0, ErrUserNotFound
	}
	for i, p := range m.projects {
		if p.id == id && p.userID == uid {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory) Close() error { return nil }
