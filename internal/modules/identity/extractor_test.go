package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/marginalia-app/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	response string
	err      error
	prompt   string
	system   string
}

func (s *stubClient) Complete(_ context.Context, systemPrompt, prompt string) (string, error) {
	s.system = systemPrompt
	s.prompt = prompt
	return s.response, s.err
}

func (s *stubClient) StreamComplete(ctx context.Context, systemPrompt, prompt string, onToken func(string)) (string, error) {
	result, err := s.Complete(ctx, systemPrompt, prompt)
	if err == nil && onToken != nil {
		onToken(result)
	}
	return result, err
}

func TestExtractFullIdentity(t *testing.T) {
	client := &stubClient{response: `{
		"metadata":{"title":"Weapons of Math Destruction","author":"Cathy O'Neil","year":2016},
		"coreCommitments":"Opaque models amplify inequality.",
		"antagonists":"The myth of objective scoring.",
		"characteristicMoves":"Traces one model's feedback loop end to end.",
		"vocabulary":["WMD","proxies","feedback loop"],
		"triggers":"claims that data is neutral",
		"voiceSamples":["Models are opinions embedded in mathematics."]
	}`}

	result, err := NewExtractor(client).Extract(context.Background(), "the text", "draft title", "draft author")
	require.NoError(t, err)

	assert.Equal(t, "Weapons of Math Destruction", result.Metadata.Title)
	require.NotNil(t, result.Metadata.Author)
	assert.Equal(t, "Cathy O'Neil", *result.Metadata.Author)
	require.NotNil(t, result.Metadata.Year)
	assert.Equal(t, 2016, *result.Metadata.Year)

	assert.Equal(t, "Opaque models amplify inequality.", result.Identity.CoreCommitments)
	assert.Contains(t, result.Identity.Raw, "CORE COMMITMENTS")
	assert.Contains(t, result.Identity.Raw, "WMD, proxies, feedback loop")
}

func TestExtractTitleOnly(t *testing.T) {
	client := &stubClient{response: `{"metadata":{"title":"Untitled Fragment","author":null,"year":null}}`}

	result, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Untitled Fragment", result.Metadata.Title)
	assert.Nil(t, result.Metadata.Author)
	assert.Nil(t, result.Metadata.Year)
	assert.Empty(t, result.Identity.CoreCommitments)
	assert.NotNil(t, result.Identity.Vocabulary)
	assert.Empty(t, result.Identity.Vocabulary)
	assert.NotNil(t, result.Identity.VoiceSamples)
	assert.Empty(t, result.Identity.VoiceSamples)
}

func TestExtractDiscardsModelSuppliedRaw(t *testing.T) {
	client := &stubClient{response: `{
		"metadata":{"title":"T"},
		"coreCommitments":"Commitment.",
		"raw":"HAND WRITTEN RAW THAT MUST NOT SURVIVE"
	}`}

	result, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	require.NoError(t, err)

	assert.NotContains(t, result.Identity.Raw, "HAND WRITTEN")

	expected := models.IdentityLayer{CoreCommitments: "Commitment.", Vocabulary: []string{}, VoiceSamples: []string{}}
	expected.RebuildRaw()
	assert.Equal(t, expected.Raw, result.Identity.Raw)
}

func TestExtractMalformedOutput(t *testing.T) {
	client := &stubClient{response: "I could not produce JSON, sorry."}
	_, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	assert.ErrorIs(t, err, ErrMalformedExtraction)
}

func TestExtractFencedOutput(t *testing.T) {
	client := &stubClient{response: "```json\n{\"metadata\":{\"title\":\"T\"},\"triggers\":\"x\"}\n```"}
	result, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	require.NoError(t, err)
	assert.Equal(t, "x", result.Identity.Triggers)
}

func TestExtractYearAsString(t *testing.T) {
	client := &stubClient{response: `{"metadata":{"title":"T","year":"1984"}}`}
	result, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	require.NoError(t, err)
	require.NotNil(t, result.Metadata.Year)
	assert.Equal(t, 1984, *result.Metadata.Year)
}

func TestExtractRequiresText(t *testing.T) {
	_, err := NewExtractor(&stubClient{}).Extract(context.Background(), "   ", "t", "a")
	assert.Error(t, err)
}

func TestExtractPropagatesClientError(t *testing.T) {
	client := &stubClient{err: errors.New("timeout")}
	_, err := NewExtractor(client).Extract(context.Background(), "text", "", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedExtraction)
}

func TestExtractPromptIncludesInput(t *testing.T) {
	client := &stubClient{response: `{"metadata":{"title":"T"}}`}
	_, err := NewExtractor(client).Extract(context.Background(), "document body", "My Title", "An Author")
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "TITLE: My Title")
	assert.Contains(t, client.prompt, "AUTHOR: An Author")
	assert.Contains(t, client.prompt, "document body")
}
