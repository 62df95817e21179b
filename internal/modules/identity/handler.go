package identity

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	appcfg "github.com/marginalia-app/core/internal/config"
	"github.com/marginalia-app/core/internal/modules/llm"
	"github.com/marginalia-app/core/internal/pkg/response"
)

// Handler exposes synchronous identity extraction. The background path lives
// in Service; this endpoint is for callers that already hold the text.
type Handler struct {
	cfg *appcfg.AppConfig
}

func NewHandler(cfg *appcfg.AppConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/identity/extract", h.Extract)
}

type extractRequest struct {
	Text   string `json:"text"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Extract handles POST /identity/extract.
func (h *Handler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.BadRequest(c, "text is required")
		return
	}

	client, err := llm.NewClient(h.cfg.AI, h.cfg.AI.IdentityModel)
	if err != nil {
		response.Unavailable(c, "no AI provider configured")
		return
	}

	result, err := NewExtractor(client).Extract(c.Request.Context(), req.Text, req.Title, req.Author)
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			response.Unavailable(c, "no AI provider configured")
			return
		}
		response.InternalError(c, err)
		return
	}

	response.OK(c, result)
}
