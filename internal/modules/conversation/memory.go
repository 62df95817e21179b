package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marginalia-app/core/internal/models"
)

// MemoryStore keeps conversations in process memory. It backs tests and can
// serve single-instance deployments without a database.
type MemoryStore struct {
	mu        sync.Mutex
	exchanges map[Key][]*models.ExchangeModel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{exchanges: map[Key][]*models.ExchangeModel{}}
}

func (s *MemoryStore) StartExchange(_ context.Context, key Key, passage, question string) (*models.ExchangeModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchange := &models.ExchangeModel{
		WorkspaceID:    key.WorkspaceID,
		PaperID:        key.PaperID,
		ParagraphIndex: key.ParagraphIndex,
		Passage:        passage,
		Question:       question,
		Responses:      []models.SourceResponse{},
	}
	exchange.ID = uuid.New().String()
	exchange.CreatedAt = time.Now()

	s.exchanges[key] = append(s.exchanges[key], exchange)
	return cloneExchange(exchange), nil
}

func (s *MemoryStore) AppendResponse(_ context.Context, key Key, exchangeID, sourceID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, exchange := range s.exchanges[key] {
		if exchange.ID != exchangeID {
			continue
		}
		exchange.Responses = append(exchange.Responses, models.SourceResponse{
			SourceID:  sourceID,
			Content:   content,
			CreatedAt: time.Now(),
		})
		return nil
	}
	return fmt.Errorf("exchange %s not found", exchangeID)
}

func (s *MemoryStore) Exchanges(_ context.Context, key Key) ([]models.ExchangeModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ExchangeModel, 0, len(s.exchanges[key]))
	for _, exchange := range s.exchanges[key] {
		out = append(out, *cloneExchange(exchange))
	}
	return out, nil
}

func (s *MemoryStore) HistoryFor(ctx context.Context, key Key, sourceID string) ([]HistoryItem, error) {
	exchanges, err := s.Exchanges(ctx, key)
	if err != nil {
		return nil, err
	}
	return historyFromExchanges(exchanges, sourceID), nil
}

func (s *MemoryStore) Clear(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exchanges, key)
	return nil
}

func cloneExchange(exchange *models.ExchangeModel) *models.ExchangeModel {
	clone := *exchange
	clone.Responses = append([]models.SourceResponse(nil), exchange.Responses...)
	return &clone
}
