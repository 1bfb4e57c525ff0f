package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"urban3d/internal/backend"
	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/store"
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.Code, e.Message)
}

// Client implements backend.Service against a remote server.
type Client struct {
	Base string
	HTTP *http.Client
}

var _ backend.Service = (*Client)(nil)

func NewClient(base string) *Client {
	return &Client{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.Base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: res.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func statusIs(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func (c *Client) Buildings(ctx context.Context, bb geom.BBox, refresh bool) (*backend.BuildingsResult, error) {
	q := url.Values{
		"west":  {strconv.FormatFloat(bb.MinX, 'f', -1, 64)},
		"south": {strconv.FormatFloat(bb.MinY, 'f', -1, 64)},
		"east":  {strconv.FormatFloat(bb.MaxX, 'f', -1, 64)},
		"north": {strconv.FormatFloat(bb.MaxY, 'f', -1, 64)},
	}
	if refresh {
		q.Set("refresh", "1")
	}
	var res backend.BuildingsResult
	if err := c.do(ctx, http.MethodGet, "/api/buildings", q, nil, &res); err != nil {
		if statusIs(err, http.StatusInternalServerError) {
			return nil, fmt.Errorf("%w: %v", backend.ErrNoData, err)
		}
		return nil, err
	}
	return &res, nil
}

func (c *Client) Filter(ctx context.Context, text string, bs []building.Building) (*backend.FilterResult, error) {
	if bs == nil {
		bs = []building.Building{}
	}
	var res backend.FilterResult
	err := c.do(ctx, http.MethodPost, "/api/llm-filter", nil, filterRequest{Query: text, Buildings: bs}, &res)
	if err != nil {
		return nil, err
	}
	if res.MatchingIDs == nil {
		res.MatchingIDs = []int64{}
	}
	return &res, nil
}

func (c *Client) SaveProject(ctx context.Context, username, name string, filters json.RawMessage) (int64, error) {
	var res struct {
		OK        bool  `json:"ok"`
		ProjectID int64 `json:"project_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/save", nil, saveRequest{Username: username, ProjectName: name, Filters: filters}, &res)
	if statusIs(err, http.StatusBadRequest) {
		return 0, fmt.Errorf("%w: %v", store.ErrMissingField, err)
	}
	if err != nil {
		return 0, err
	}
	return res.ProjectID, nil
}

func (c *Client) Projects(ctx context.Context, username string) ([]store.Summary, error) {
	list := []store.Summary{}
	err := c.do(ctx, http.MethodGet, "/api/projects", url.Values{"username": {username}}, nil, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) LoadProject(ctx context.Context, id int64) (json.RawMessage, error) {
	var res struct {
		Filters json.RawMessage `json:"filters"`
	}
	err := c.do(ctx, http.MethodGet, "/api/load", url.Values{"project_id": {strconv.FormatInt(id, 10)}}, nil, &res)
	if statusIs(err, http.StatusNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res.Filters, nil
}

func (c *Client) DeleteProject(ctx context.Context, username string, id int64) (int64, error) {
	var res struct {
		OK      bool  `json:"ok"`
		Deleted int64 `json:"deleted"`
	}
	body := deleteRequest{Username: username, ProjectID: json.Number(strconv.FormatInt(id, 10))}
	err := c.do(ctx, http.MethodPost, "/api/delete", nil, body, &res)
	if statusIs(err, http.StatusNotFound) {
		return 0, store.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return res.Deleted, nil
}
