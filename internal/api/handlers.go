package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"urban3d/internal/backend"
	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
	"urban3d/internal/store"
)

type handlers struct {
	svc  backend.Service
	log  logging.Logger
	bbox geom.BBox
}

type filterRequest struct {
	Query     string              `json:"query"`
	Buildings []building.Building `json:"buildings"`
}

type saveRequest struct {
	Username    string          `json:"username"`
	ProjectName string          `json:"project_name"`
	Filters     json.RawMessage `json:"filters"`
}

type deleteRequest struct {
	Username  string      `json:"username"`
	ProjectID json.Number `json:"project_id"`
}

func (h *handlers) root(c *gin.Context) {
	c.String(http.StatusOK, "Urban 3D API OK")
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func truthy(s string) bool {
	switch s {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *handlers) buildings(c *gin.Context) {
	bb := h.bbox
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"west", &bb.MinX}, {"south", &bb.MinY}, {"east", &bb.MaxX}, {"north", &bb.MaxY},
	} {
		v, ok := c.GetQuery(p.name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + p.name + ": " + v})
			return
		}
		*p.dst = f
	}
	if !bb.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bbox"})
		return
	}

	res, err := h.svc.Buildings(c.Request.Context(), bb, truthy(c.Query("refresh")))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	res, err := h.svc.Filter(c.Request.Context(), req.Query, req.Buildings)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.ProjectName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and project_name required"})
		return
	}
	id, err := h.svc.SaveProject(c.Request.Context(), req.Username, req.ProjectName, req.Filters)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project_id": id})
}

func (h *handlers) projects(c *gin.Context) {
	list, err := h.svc.Projects(c.Request.Context(), c.Query("username"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) load(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	filters, err := h.svc.LoadProject(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}

func (h *handlers) delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json: " + err.Error()})
		return
	}
	id, _ := req.ProjectID.Int64()
	if strings.TrimSpace(req.Username) == "" || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username and project_id required"})
		return
	}
	n, err := h.svc.DeleteProject(c.Request.Context(), req.Username, id)
	if errors.Is(err, store.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": n > 0, "deleted": n})
}
