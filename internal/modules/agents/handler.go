package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	appcfg "github.com/marginalia-app/core/internal/config"
	"github.com/marginalia-app/core/internal/models"
	"github.com/marginalia-app/core/internal/modules/conversation"
	"github.com/marginalia-app/core/internal/modules/llm"
	"github.com/marginalia-app/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broadcaster pushes agent activity to connected readers.
type Broadcaster interface {
	BroadcastReader(event string, payload interface{})
}

// Handler exposes the prefilter and respond endpoints.
type Handler struct {
	db     *gorm.DB
	cfg    *appcfg.AppConfig
	cache  *PrefilterCache
	store  conversation.Store
	hub    Broadcaster
	logger *zap.Logger
}

func NewHandler(db *gorm.DB, cfg *appcfg.AppConfig, cache *PrefilterCache, store conversation.Store, hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{db: db, cfg: cfg, cache: cache, store: store, hub: hub, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/agents/prefilter", h.Prefilter)
	r.POST("/agents/respond", h.Respond)
}

// InvalidatePrefilter drops the cached verdict for one paragraph. Wired to
// the conversation clear endpoint so "clear & refresh" recomputes.
func (h *Handler) InvalidatePrefilter(c *gin.Context, key conversation.Key) {
	h.cache.Invalidate(c.Request.Context(), key.WorkspaceID, key.PaperID, key.ParagraphIndex)
}

type prefilterRequest struct {
	WorkspaceID     string   `json:"workspaceId"`
	PaperID         string   `json:"paperId"`
	ParagraphIndex  *int     `json:"paragraphIndex"`
	Passage         string   `json:"passage"`
	CandidatePapers []string `json:"candidatePapers"`
}

// Prefilter handles POST /agents/prefilter. Results are cached per paragraph
// when the request carries a paragraph address; ?refresh=true bypasses and
// rewrites the cache.
func (h *Handler) Prefilter(c *gin.Context) {
	var req prefilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Passage) == "" {
		response.BadRequest(c, "passage is required")
		return
	}
	if len(req.CandidatePapers) == 0 {
		response.BadRequest(c, "candidatePapers is required")
		return
	}

	cacheable := req.WorkspaceID != "" && req.PaperID != "" && req.ParagraphIndex != nil
	refresh := c.Query("refresh") == "true"

	if cacheable && !refresh {
		if entries, found := h.cache.Get(c.Request.Context(), req.WorkspaceID, req.PaperID, *req.ParagraphIndex); found {
			response.OK(c, gin.H{"engagements": entries, "cached": true})
			return
		}
	}

	candidates, err := h.loadCandidates(c, req.CandidatePapers)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	client, err := llm.NewClient(h.cfg.AI, h.cfg.AI.PrefilterModel)
	if err != nil {
		response.Unavailable(c, "no AI provider configured")
		return
	}

	entries, err := NewPrefilter(client, h.cfg.Agents.DefaultAngle).Run(c.Request.Context(), req.Passage, candidates)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	if cacheable {
		h.cache.Put(c.Request.Context(), req.WorkspaceID, req.PaperID, *req.ParagraphIndex, entries)
	}
	response.OK(c, gin.H{"engagements": entries})
}

func (h *Handler) loadCandidates(c *gin.Context, ids []string) ([]Candidate, error) {
	var papers []models.PaperModel
	if err := h.db.WithContext(c.Request.Context()).Find(&papers, "id IN ?", ids).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.PaperModel, len(papers))
	for _, paper := range papers {
		byID[paper.ID] = paper
	}

	candidates := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		paper, ok := byID[id]
		if !ok {
			continue
		}
		cand := Candidate{SourceID: paper.ID, Title: paper.Title, Author: paper.Author}
		if paper.Identity != nil {
			cand.Triggers = paper.Identity.Triggers
			cand.Vocabulary = paper.Identity.Vocabulary
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

type respondRequest struct {
	WorkspaceID    string   `json:"workspaceId"`
	PaperID        string   `json:"paperId"`
	ParagraphIndex int      `json:"paragraphIndex"`
	Passage        string   `json:"passage"`
	TargetPapers   []string `json:"targetPapers"`
	Question       string   `json:"question"`
	ReplyToContent string   `json:"replyToContent"`
	Verbosity      string   `json:"verbosity"`
}

// Respond handles POST /agents/respond: fans out one agent per target paper
// and streams their multiplexed events back over SSE. Completed responses are
// appended to the conversation store as each agent finishes.
func (h *Handler) Respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Passage) == "" {
		response.BadRequest(c, "passage is required")
		return
	}
	if len(req.TargetPapers) == 0 {
		response.BadRequest(c, "targetPapers is required")
		return
	}

	verbosity := req.Verbosity
	if verbosity == "" {
		verbosity = h.cfg.Agents.DefaultVerbosity
	}

	key := conversation.Key{
		WorkspaceID:    req.WorkspaceID,
		PaperID:        req.PaperID,
		ParagraphIndex: req.ParagraphIndex,
	}

	targets, err := h.loadTargets(c, key, req.TargetPapers)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "target paper not found")
			return
		}
		response.InternalError(c, err)
		return
	}

	client, err := llm.NewClient(h.cfg.AI, h.cfg.AI.AgentModel)
	if err != nil {
		response.Unavailable(c, "no AI provider configured")
		return
	}

	budgeter := NewBudgeter(h.cfg.Agents.ContextBudget)
	timeout := time.Duration(h.cfg.Agents.StreamTimeoutSeconds) * time.Second
	orchestrator := NewOrchestrator(client, budgeter, timeout)

	events, err := orchestrator.Respond(c.Request.Context(), RespondRequest{
		Passage:   req.Passage,
		Question:  req.Question,
		ReplyTo:   req.ReplyToContent,
		Verbosity: verbosity,
		Targets:   targets,
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	exchange, err := h.store.StartExchange(c.Request.Context(), key, req.Passage, req.Question)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for event := range events {
		h.writeEvent(c, event)

		switch event.Type {
		case EventDone:
			if err := h.store.AppendResponse(c.Request.Context(), key, exchange.ID, event.SourceID, event.Content); err != nil && h.logger != nil {
				h.logger.Warn("failed to persist agent response",
					zap.String("exchange_id", exchange.ID),
					zap.String("source_id", event.SourceID),
					zap.Error(err),
				)
			}
			h.broadcastActivity(event.SourceID, req.ParagraphIndex, "done")
		case EventStart:
			h.broadcastActivity(event.SourceID, req.ParagraphIndex, "responding")
		case EventError:
			h.broadcastActivity(event.SourceID, req.ParagraphIndex, "error")
		}
	}
}

// loadTargets resolves target papers and each agent's prior history for this
// paragraph. A target id with no stored paper is a hard 404; responding as a
// paper the caller cannot see would be worse than failing.
func (h *Handler) loadTargets(c *gin.Context, key conversation.Key, ids []string) ([]Target, error) {
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		var paper models.PaperModel
		if err := h.db.WithContext(c.Request.Context()).First(&paper, "id = ?", id).Error; err != nil {
			return nil, err
		}

		history, err := h.store.HistoryFor(c.Request.Context(), key, paper.ID)
		if err != nil {
			return nil, err
		}

		target := Target{
			SourceID: paper.ID,
			Persona:  Persona{Title: paper.Title, Author: paper.Author},
			FullText: paper.FullText,
			History:  history,
		}
		if paper.Identity != nil {
			target.Persona.IdentityRaw = paper.Identity.Raw
		}
		if hint := h.cachedHint(c, key, paper.ID); hint != nil {
			target.Hint = hint
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// cachedHint reuses the paragraph's prefilter verdict as the engagement hint
// for this agent, when one exists.
func (h *Handler) cachedHint(c *gin.Context, key conversation.Key, sourceID string) *EngagementEntry {
	entries, found := h.cache.Get(c.Request.Context(), key.WorkspaceID, key.PaperID, key.ParagraphIndex)
	if !found {
		return nil
	}
	for i := range entries {
		if entries[i].SourceID == sourceID {
			return &entries[i]
		}
	}
	return nil
}

func (h *Handler) writeEvent(c *gin.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	c.Writer.Flush()
}

func (h *Handler) broadcastActivity(sourceID string, paragraphIndex int, state string) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastReader("agent:activity", map[string]interface{}{
		"sourceId":       sourceID,
		"paragraphIndex": paragraphIndex,
		"state":          state,
	})
}
