package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	appcfg "github.com/marginalia-app/core/internal/config"
	"github.com/marginalia-app/core/internal/models"
	"github.com/marginalia-app/core/internal/modules/llm"
	"github.com/marginalia-app/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TaskTypeExtract = "identity:extract"

// ErrNoSourceText means the paper has no retained text to extract from, so a
// retry cannot succeed until the document is re-uploaded.
var ErrNoSourceText = errors.New("paper has no retained source text")

// Broadcaster pushes paper lifecycle events to connected readers.
type Broadcaster interface {
	BroadcastReader(event string, payload interface{})
}

// ExtractPayload is the task payload for background extraction.
type ExtractPayload struct {
	PaperID string `json:"paper_id"`
}

// Service runs identity extraction as observable background tasks: the paper's
// status field tracks progress, and completion is broadcast to the gateway.
type Service struct {
	db      *gorm.DB
	cfg     *appcfg.AppConfig
	taskSvc *taskqueue.Service
	hub     Broadcaster
	logger  *zap.Logger
}

func NewService(db *gorm.DB, cfg *appcfg.AppConfig, taskSvc *taskqueue.Service, hub Broadcaster, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, taskSvc: taskSvc, hub: hub, logger: logger}
}

// EnqueueExtraction schedules extraction for a paper. Deduplicated per paper:
// a second enqueue while one is pending returns the live task.
func (s *Service) EnqueueExtraction(ctx context.Context, paperID string) (*taskqueue.Task, error) {
	var paper models.PaperModel
	if err := s.db.First(&paper, "id = ?", paperID).Error; err != nil {
		return nil, err
	}
	if strings.TrimSpace(paper.FullText) == "" {
		return nil, ErrNoSourceText
	}

	task, err := s.taskSvc.Enqueue(ctx, TaskTypeExtract, ExtractPayload{PaperID: paperID}, paperID, paperID)
	if err != nil {
		return nil, err
	}

	if task.Status == taskqueue.TaskPending {
		s.db.Model(&models.PaperModel{}).Where("id = ?", paperID).
			Updates(map[string]interface{}{"status": models.PaperProcessing, "extract_error": ""})
		s.broadcastStatus(paperID, models.PaperProcessing)
		go s.executeExtraction(context.Background(), task.ID, paperID)
	}

	return task, nil
}

func (s *Service) executeExtraction(ctx context.Context, taskID, paperID string) {
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, "")

	var paper models.PaperModel
	if err := s.db.First(&paper, "id = ?", paperID).Error; err != nil {
		s.failExtraction(ctx, taskID, paperID, "paper not found")
		return
	}

	client, err := llm.NewClient(s.cfg.AI, s.cfg.AI.IdentityModel)
	if err != nil {
		s.failExtraction(ctx, taskID, paperID, err.Error())
		return
	}

	result, err := NewExtractor(client).Extract(ctx, paper.FullText, paper.Title, paper.Author)
	if err != nil {
		s.failExtraction(ctx, taskID, paperID, err.Error())
		return
	}

	paper.Identity = &result.Identity
	paper.Status = models.PaperReady
	paper.ExtractError = ""
	// Extraction-discovered metadata corrects what the uploader supplied.
	if result.Metadata.Title != "" {
		paper.Title = result.Metadata.Title
	}
	if result.Metadata.Author != nil {
		paper.Author = *result.Metadata.Author
	}
	if err := s.db.Save(&paper).Error; err != nil {
		s.failExtraction(ctx, taskID, paperID, err.Error())
		return
	}

	s.broadcastStatus(paperID, models.PaperReady)
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, resultSummary(result), "")
}

// failExtraction marks the paper errored but keeps its full text so the
// extraction can be retried.
func (s *Service) failExtraction(ctx context.Context, taskID, paperID, reason string) {
	if s.logger != nil {
		s.logger.Warn("identity extraction failed",
			zap.String("paper_id", paperID),
			zap.String("reason", reason),
		)
	}
	s.db.Model(&models.PaperModel{}).Where("id = ?", paperID).
		Updates(map[string]interface{}{"status": models.PaperError, "extract_error": reason})
	s.broadcastStatus(paperID, models.PaperError)
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, reason)
}

func (s *Service) broadcastStatus(paperID string, status models.PaperStatus) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastReader("paper:status", map[string]interface{}{
		"id":     paperID,
		"status": status,
	})
}

func resultSummary(result *Result) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{
		"title":           result.Metadata.Title,
		"vocabularyCount": len(result.Identity.Vocabulary),
	})
	return data
}
