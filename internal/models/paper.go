package models

import "strings"

// PaperStatus tracks the identity-extraction lifecycle of a paper.
type PaperStatus string

const (
	PaperProcessing PaperStatus = "processing"
	PaperReady      PaperStatus = "ready"
	PaperError      PaperStatus = "error"
)

// PaperType classifies the kind of source document.
type PaperType string

const (
	PaperArticle PaperType = "article"
	PaperBook    PaperType = "book"
	PaperChapter PaperType = "chapter"
	PaperOther   PaperType = "other"
)

// ParagraphKind is the block type of one paragraph of a paper.
// Headings carry their level; everything else is body text.
type ParagraphKind string

const (
	ParagraphH1   ParagraphKind = "h1"
	ParagraphH2   ParagraphKind = "h2"
	ParagraphH3   ParagraphKind = "h3"
	ParagraphBody ParagraphKind = "body"
)

// Paragraph is one typed block of a paper's text, in document order.
type Paragraph struct {
	Kind    ParagraphKind `json:"kind"`
	Content string        `json:"content"`
}

// PaperModel is a loaded document. It serves as either the reading target or a
// commentating agent; the identity layer is nil until extraction completes.
type PaperModel struct {
	Base
	Title        string         `json:"title"      gorm:"not null"`
	Author       string         `json:"author"`
	Type         PaperType      `json:"type"       gorm:"type:varchar(16);default:article"`
	FullText     string         `json:"fullText"   gorm:"type:longtext"`
	Paragraphs   []Paragraph    `json:"paragraphs" gorm:"type:longtext;serializer:json"`
	Identity     *IdentityLayer `json:"identityLayer" gorm:"type:longtext;serializer:json"`
	Status       PaperStatus    `json:"status"     gorm:"type:varchar(16);default:processing;index"`
	ExtractError string         `json:"extractError,omitempty" gorm:"type:text"`
}

func (PaperModel) TableName() string { return "papers" }

// IdentityLayer is the extracted argumentative identity of a paper. It is
// replaced wholesale on re-extraction, never merged.
type IdentityLayer struct {
	CoreCommitments     string   `json:"coreCommitments"`
	Antagonists         string   `json:"antagonists"`
	CharacteristicMoves string   `json:"characteristicMoves"`
	Vocabulary          []string `json:"vocabulary"`
	Triggers            string   `json:"triggers"`
	VoiceSamples        []string `json:"voiceSamples"`
	Raw                 string   `json:"raw"`
}

// RebuildRaw recomputes the prompt-embeddable text from the structured fields.
// The section order is fixed; Raw must never be taken from external input.
func (l *IdentityLayer) RebuildRaw() {
	var b strings.Builder

	section := func(label, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(label)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(body))
	}

	section("CORE COMMITMENTS", l.CoreCommitments)
	section("ANTAGONISTS", l.Antagonists)
	section("CHARACTERISTIC MOVES", l.CharacteristicMoves)
	section("VOCABULARY", strings.Join(l.Vocabulary, ", "))
	section("TRIGGERS", l.Triggers)
	if len(l.VoiceSamples) > 0 {
		quoted := make([]string, 0, len(l.VoiceSamples))
		for _, s := range l.VoiceSamples {
			if strings.TrimSpace(s) == "" {
				continue
			}
			quoted = append(quoted, "\""+strings.TrimSpace(s)+"\"")
		}
		section("VOICE SAMPLES", strings.Join(quoted, "\n"))
	}

	l.Raw = b.String()
}
