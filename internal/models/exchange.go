package models

import "time"

// SourceResponse is one agent's reply inside an exchange.
type SourceResponse struct {
	SourceID  string    `json:"sourceId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created"`
}

// ExchangeModel is one round of conversation about a single paragraph: an
// optional question plus the agent responses it produced. Exchanges are
// append-only; the full list per paragraph is the audit trail of everything
// ever asked and answered about that passage.
type ExchangeModel struct {
	Base
	WorkspaceID    string           `json:"workspaceId"    gorm:"type:char(36);index:idx_exchange_key"`
	PaperID        string           `json:"paperId"        gorm:"type:char(36);index:idx_exchange_key"`
	ParagraphIndex int              `json:"paragraphIndex" gorm:"index:idx_exchange_key"`
	Passage        string           `json:"passage"        gorm:"type:longtext"`
	Question       string           `json:"question,omitempty" gorm:"type:text"`
	Responses      []SourceResponse `json:"responses"      gorm:"type:longtext;serializer:json"`
}

func (ExchangeModel) TableName() string { return "exchanges" }
