package conversation

import (
	"context"
	"time"

	"github.com/marginalia-app/core/internal/models"
	"gorm.io/gorm"
)

// GormStore persists conversations in MySQL through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) StartExchange(ctx context.Context, key Key, passage, question string) (*models.ExchangeModel, error) {
	exchange := models.ExchangeModel{
		WorkspaceID:    key.WorkspaceID,
		PaperID:        key.PaperID,
		ParagraphIndex: key.ParagraphIndex,
		Passage:        passage,
		Question:       question,
		Responses:      []models.SourceResponse{},
	}
	if err := s.db.WithContext(ctx).Create(&exchange).Error; err != nil {
		return nil, err
	}
	return &exchange, nil
}

func (s *GormStore) AppendResponse(ctx context.Context, key Key, exchangeID, sourceID, content string) error {
	var exchange models.ExchangeModel
	err := s.scope(ctx, key).First(&exchange, "id = ?", exchangeID).Error
	if err != nil {
		return err
	}

	exchange.Responses = append(exchange.Responses, models.SourceResponse{
		SourceID:  sourceID,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return s.db.WithContext(ctx).Save(&exchange).Error
}

func (s *GormStore) Exchanges(ctx context.Context, key Key) ([]models.ExchangeModel, error) {
	var exchanges []models.ExchangeModel
	err := s.scope(ctx, key).Order("created_at ASC").Find(&exchanges).Error
	if err != nil {
		return nil, err
	}
	return exchanges, nil
}

func (s *GormStore) HistoryFor(ctx context.Context, key Key, sourceID string) ([]HistoryItem, error) {
	exchanges, err := s.Exchanges(ctx, key)
	if err != nil {
		return nil, err
	}
	return historyFromExchanges(exchanges, sourceID), nil
}

func (s *GormStore) Clear(ctx context.Context, key Key) error {
	return s.scope(ctx, key).Delete(&models.ExchangeModel{}).Error
}

func (s *GormStore) scope(ctx context.Context, key Key) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("workspace_id = ? AND paper_id = ? AND paragraph_index = ?",
			key.WorkspaceID, key.PaperID, key.ParagraphIndex)
}
