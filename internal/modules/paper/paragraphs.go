// Package paper handles document intake: storing uploaded texts, splitting
// them into typed paragraphs, and driving identity extraction.
package paper

import (
	"strings"

	"github.com/marginalia-app/core/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdownEngine = goldmark.New()

// SplitParagraphs turns a document's text into ordered typed blocks.
// Markdown headings become h1/h2/h3 blocks (deeper levels clamp to h3);
// everything else is body text in document order.
func SplitParagraphs(text string) []models.Paragraph {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []models.Paragraph{}
	}

	source := []byte(trimmed)
	doc := markdownEngine.Parser().Parse(gmtext.NewReader(source))

	paragraphs := make([]models.Paragraph, 0, 32)
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		content := strings.TrimSpace(blockText(node, source))
		if content == "" {
			continue
		}

		kind := models.ParagraphBody
		if heading, ok := node.(*ast.Heading); ok {
			kind = headingKind(heading.Level)
		}
		paragraphs = append(paragraphs, models.Paragraph{Kind: kind, Content: content})
	}

	if len(paragraphs) == 0 {
		return splitPlainText(trimmed)
	}
	return paragraphs
}

func headingKind(level int) models.ParagraphKind {
	switch level {
	case 1:
		return models.ParagraphH1
	case 2:
		return models.ParagraphH2
	default:
		return models.ParagraphH3
	}
}

func blockText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// splitPlainText is the fallback for text with no parseable structure:
// blank-line separated body blocks.
func splitPlainText(text string) []models.Paragraph {
	paragraphs := make([]models.Paragraph, 0, 16)
	for _, chunk := range strings.Split(text, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		paragraphs = append(paragraphs, models.Paragraph{Kind: models.ParagraphBody, Content: chunk})
	}
	return paragraphs
}
