// Package workspace manages reading sessions: named groupings of papers with
// one active reading target, plus the share-bundle exporter.
package workspace

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/middleware"
	"github.com/marginalia-app/core/internal/models"
	"github.com/marginalia-app/core/internal/pkg/response"
	"gorm.io/gorm"
)

// Handler exposes workspace CRUD and sharing.
type Handler struct {
	db       *gorm.DB
	exporter *Exporter
}

func NewHandler(db *gorm.DB, exporter *Exporter) *Handler {
	return &Handler{db: db, exporter: exporter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/workspaces", h.Create)
	r.GET("/workspaces", h.List)
	r.GET("/workspaces/:id", h.Get)
	r.PATCH("/workspaces/:id", h.Update)
	r.DELETE("/workspaces/:id", middleware.Auth(), h.Delete)
	r.POST("/workspaces/:id/share", middleware.Auth(), h.Share)
}

type createRequest struct {
	Name     string   `json:"name"`
	PaperIDs []string `json:"paperIds"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(c, "name is required")
		return
	}

	ws := models.WorkspaceModel{
		Name:     strings.TrimSpace(req.Name),
		PaperIDs: req.PaperIDs,
	}
	if ws.PaperIDs == nil {
		ws.PaperIDs = []string{}
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&ws).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, ws)
}

func (h *Handler) List(c *gin.Context) {
	var workspaces []models.WorkspaceModel
	err := h.db.WithContext(c.Request.Context()).
		Order("updated_at DESC").Find(&workspaces).Error
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, workspaces)
}

func (h *Handler) Get(c *gin.Context) {
	ws, ok := h.find(c)
	if !ok {
		return
	}
	response.OK(c, ws)
}

type updateRequest struct {
	Name          *string   `json:"name"`
	PaperIDs      *[]string `json:"paperIds"`
	ActivePaperID *string   `json:"activePaperId"`
}

// Update handles PATCH /workspaces/:id. The active paper must always be a
// member of the workspace; requests that would break that are rejected.
func (h *Handler) Update(c *gin.Context) {
	ws, ok := h.find(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			response.BadRequest(c, "name cannot be empty")
			return
		}
		ws.Name = strings.TrimSpace(*req.Name)
	}
	if req.PaperIDs != nil {
		ws.PaperIDs = *req.PaperIDs
		if ws.PaperIDs == nil {
			ws.PaperIDs = []string{}
		}
	}
	if req.ActivePaperID != nil {
		ws.ActivePaperID = *req.ActivePaperID
	}

	if ws.ActivePaperID != "" && !ws.ContainsPaper(ws.ActivePaperID) {
		// Dropping the active paper from the membership clears the pointer
		// instead of leaving it dangling, unless the caller set it explicitly.
		if req.ActivePaperID != nil {
			response.BadRequest(c, "activePaperId must be a member of the workspace")
			return
		}
		ws.ActivePaperID = ""
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&ws).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, ws)
}

func (h *Handler) Delete(c *gin.Context) {
	result := h.db.WithContext(c.Request.Context()).
		Delete(&models.WorkspaceModel{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		response.InternalError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

// Share handles POST /workspaces/:id/share: bundle the workspace and its
// papers and upload to the configured object store.
func (h *Handler) Share(c *gin.Context) {
	if h.exporter == nil {
		response.Unavailable(c, "share export is not configured")
		return
	}

	ws, ok := h.find(c)
	if !ok {
		return
	}

	url, err := h.exporter.Export(c.Request.Context(), &ws)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

func (h *Handler) find(c *gin.Context) (models.WorkspaceModel, bool) {
	var ws models.WorkspaceModel
	err := h.db.WithContext(c.Request.Context()).First(&ws, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
		} else {
			response.InternalError(c, err)
		}
		return ws, false
	}
	return ws, true
}
