package conversation

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/pkg/response"
)

// PrefilterInvalidator drops cached prefilter verdicts when a paragraph's
// conversation is cleared, so the next selection recomputes from scratch.
type PrefilterInvalidator interface {
	InvalidatePrefilter(c *gin.Context, key Key)
}

// Handler exposes read and clear access to paragraph conversations.
type Handler struct {
	store       Store
	invalidator PrefilterInvalidator
}

func NewHandler(store Store, invalidator PrefilterInvalidator) *Handler {
	return &Handler{store: store, invalidator: invalidator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/conversations/:workspaceId/:paperId/:paragraphIndex", h.Get)
	r.DELETE("/conversations/:workspaceId/:paperId/:paragraphIndex", h.Clear)
}

// Get returns all exchanges for one paragraph, used to repopulate margin
// state after a reload.
func (h *Handler) Get(c *gin.Context) {
	key, ok := keyFromParams(c)
	if !ok {
		return
	}

	exchanges, err := h.store.Exchanges(c.Request.Context(), key)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, exchanges)
}

// Clear implements the "clear & refresh" recovery action: the paragraph's
// full record is deleted and its cached prefilter verdict invalidated.
func (h *Handler) Clear(c *gin.Context) {
	key, ok := keyFromParams(c)
	if !ok {
		return
	}

	if err := h.store.Clear(c.Request.Context(), key); err != nil {
		response.InternalError(c, err)
		return
	}
	if h.invalidator != nil {
		h.invalidator.InvalidatePrefilter(c, key)
	}
	response.NoContent(c)
}

func keyFromParams(c *gin.Context) (Key, bool) {
	index, err := strconv.Atoi(c.Param("paragraphIndex"))
	if err != nil || index < 0 {
		response.BadRequest(c, "invalid paragraph index")
		return Key{}, false
	}
	return Key{
		WorkspaceID:    c.Param("workspaceId"),
		PaperID:        c.Param("paperId"),
		ParagraphIndex: index,
	}, true
}
