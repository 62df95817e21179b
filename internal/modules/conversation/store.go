// Package conversation keeps the append-only record of exchanges about each
// paragraph: what was asked, and what every agent answered.
package conversation

import (
	"context"

	"github.com/marginalia-app/core/internal/models"
)

// Key addresses one paragraph's conversation.
type Key struct {
	WorkspaceID    string
	PaperID        string
	ParagraphIndex int
}

// HistoryItem is one prior round as seen by a single agent: the question that
// prompted it (possibly empty) and that agent's response.
type HistoryItem struct {
	Question string `json:"question,omitempty"`
	Response string `json:"response"`
}

// Store is the persistence port for paragraph conversations. The gorm-backed
// implementation serves production; the in-memory one serves tests.
type Store interface {
	// StartExchange always creates a new exchange, even for a passage
	// identical to a previous one. Each user action is its own audit record.
	StartExchange(ctx context.Context, key Key, passage, question string) (*models.ExchangeModel, error)

	// AppendResponse records one agent's completed reply in an exchange.
	AppendResponse(ctx context.Context, key Key, exchangeID, sourceID, content string) error

	// Exchanges returns all exchanges for the paragraph in creation order.
	Exchanges(ctx context.Context, key Key) ([]models.ExchangeModel, error)

	// HistoryFor extracts one agent's responses across all exchanges for the
	// paragraph, preserving exchange order.
	HistoryFor(ctx context.Context, key Key, sourceID string) ([]HistoryItem, error)

	// Clear deletes the paragraph's entire record, all exchanges included.
	Clear(ctx context.Context, key Key) error
}

func historyFromExchanges(exchanges []models.ExchangeModel, sourceID string) []HistoryItem {
	history := make([]HistoryItem, 0, len(exchanges))
	for _, exchange := range exchanges {
		for _, resp := range exchange.Responses {
			if resp.SourceID != sourceID {
				continue
			}
			history = append(history, HistoryItem{
				Question: exchange.Question,
				Response: resp.Content,
			})
		}
	}
	return history
}
