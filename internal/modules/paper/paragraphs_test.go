package paper

import (
	"testing"

	"github.com/marginalia-app/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParagraphsMarkdown(t *testing.T) {
	text := "# Title\n\nFirst body paragraph.\n\n## Section\n\nSecond body paragraph."
	paragraphs := SplitParagraphs(text)

	require.Len(t, paragraphs, 4)
	assert.Equal(t, models.ParagraphH1, paragraphs[0].Kind)
	assert.Equal(t, "Title", paragraphs[0].Content)
	assert.Equal(t, models.ParagraphBody, paragraphs[1].Kind)
	assert.Equal(t, "First body paragraph.", paragraphs[1].Content)
	assert.Equal(t, models.ParagraphH2, paragraphs[2].Kind)
	assert.Equal(t, models.ParagraphBody, paragraphs[3].Kind)
}

func TestSplitParagraphsDeepHeadingsClampToH3(t *testing.T) {
	text := "### Three\n\n#### Four\n\n##### Five"
	paragraphs := SplitParagraphs(text)

	require.Len(t, paragraphs, 3)
	for _, p := range paragraphs {
		assert.Equal(t, models.ParagraphH3, p.Kind)
	}
}

func TestSplitParagraphsPlainText(t *testing.T) {
	text := "First block of prose.\n\nSecond block of prose."
	paragraphs := SplitParagraphs(text)

	require.Len(t, paragraphs, 2)
	assert.Equal(t, models.ParagraphBody, paragraphs[0].Kind)
	assert.Equal(t, models.ParagraphBody, paragraphs[1].Kind)
}

func TestSplitParagraphsPreservesDocumentOrder(t *testing.T) {
	text := "intro\n\n# Head\n\noutro"
	paragraphs := SplitParagraphs(text)

	require.Len(t, paragraphs, 3)
	assert.Equal(t, "intro", paragraphs[0].Content)
	assert.Equal(t, "Head", paragraphs[1].Content)
	assert.Equal(t, "outro", paragraphs[2].Content)
}

func TestSplitParagraphsEmpty(t *testing.T) {
	assert.Empty(t, SplitParagraphs(""))
	assert.Empty(t, SplitParagraphs("   \n\n  "))
}

func TestSplitParagraphsSoftWrappedProse(t *testing.T) {
	text := "A sentence\nwrapped across lines.\n\nNext paragraph."
	paragraphs := SplitParagraphs(text)

	require.Len(t, paragraphs, 2)
	assert.Contains(t, paragraphs[0].Content, "wrapped across lines.")
}
