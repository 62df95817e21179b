package paper

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/middleware"
	"github.com/marginalia-app/core/internal/models"
	"github.com/marginalia-app/core/internal/modules/identity"
	"github.com/marginalia-app/core/internal/pkg/pagination"
	"github.com/marginalia-app/core/internal/pkg/response"
	"github.com/marginalia-app/core/internal/pkg/taskqueue"
	"gorm.io/gorm"
)

// Handler exposes paper intake and lifecycle endpoints.
type Handler struct {
	db       *gorm.DB
	identity *identity.Service
	tasks    *taskqueue.Service
}

func NewHandler(db *gorm.DB, identitySvc *identity.Service, taskSvc *taskqueue.Service) *Handler {
	return &Handler{db: db, identity: identitySvc, tasks: taskSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/papers", h.Create)
	r.GET("/papers", h.List)
	r.GET("/papers/:id", h.Get)
	r.GET("/papers/:id/tasks", h.Tasks)
	r.POST("/papers/:id/extract", h.RetryExtraction)
	r.DELETE("/papers/:id", middleware.Auth(), h.Delete)
}

type createRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Type   string `json:"type"`
	Text   string `json:"text"`
}

// Create handles POST /papers: store the document, split its paragraphs, and
// kick off identity extraction in the background. The paper is returned
// immediately with status processing.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.BadRequest(c, "title is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.BadRequest(c, "text is required")
		return
	}

	paper := models.PaperModel{
		Title:      strings.TrimSpace(req.Title),
		Author:     strings.TrimSpace(req.Author),
		Type:       paperType(req.Type),
		FullText:   req.Text,
		Paragraphs: SplitParagraphs(req.Text),
		Status:     models.PaperProcessing,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&paper).Error; err != nil {
		response.InternalError(c, err)
		return
	}

	if _, err := h.identity.EnqueueExtraction(c.Request.Context(), paper.ID); err != nil {
		// The paper exists either way; extraction can be retried.
		h.db.Model(&models.PaperModel{}).Where("id = ?", paper.ID).
			Updates(map[string]interface{}{"status": models.PaperError, "extract_error": err.Error()})
		paper.Status = models.PaperError
		paper.ExtractError = err.Error()
	}

	response.Created(c, paper)
}

// List handles GET /papers with pagination. Full text is omitted from list
// responses; fetch a single paper for it.
func (h *Handler) List(c *gin.Context) {
	query := pagination.FromContext(c)

	var papers []models.PaperModel
	meta, err := pagination.Paginate(
		h.db.WithContext(c.Request.Context()).
			Model(&models.PaperModel{}).
			Omit("full_text").
			Order("created_at DESC"),
		query,
		&papers,
	)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, papers, meta)
}

// Get handles GET /papers/:id.
func (h *Handler) Get(c *gin.Context) {
	var paper models.PaperModel
	err := h.db.WithContext(c.Request.Context()).First(&paper, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, paper)
}

// Tasks handles GET /papers/:id/tasks: the extraction task history for one
// paper, newest first. Status transitions are pushed over the gateway as they
// happen; this is the pull-side view of the same lifecycle.
func (h *Handler) Tasks(c *gin.Context) {
	var paper models.PaperModel
	err := h.db.WithContext(c.Request.Context()).
		Select("id").First(&paper, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	tasks, err := h.tasks.ListByGroup(c.Request.Context(), paper.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if tasks == nil {
		tasks = []*taskqueue.Task{}
	}
	response.OK(c, tasks)
}

// RetryExtraction handles POST /papers/:id/extract. Rejected when the paper
// has no retained text; re-uploading is the only way forward then.
func (h *Handler) RetryExtraction(c *gin.Context) {
	task, err := h.identity.EnqueueExtraction(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, identity.ErrNoSourceText):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, task)
}

// Delete handles DELETE /papers/:id. Conversations referencing the paper are
// kept; they remain a valid audit trail of what was said.
func (h *Handler) Delete(c *gin.Context) {
	result := h.db.WithContext(c.Request.Context()).Delete(&models.PaperModel{}, "id = ?", c.Param("id"))
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

func paperType(raw string) models.PaperType {
	switch models.PaperType(strings.ToLower(strings.TrimSpace(raw))) {
	case models.PaperBook:
		return models.PaperBook
	case models.PaperChapter:
		return models.PaperChapter
	case models.PaperOther:
		return models.PaperOther
	default:
		return models.PaperArticle
	}
}
