package agents

import (
	"strings"
	"testing"

	"github.com/marginalia-app/core/internal/modules/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPromptPersona(t *testing.T) {
	prompt := BuildSystemPrompt(Persona{Title: "Automating Inequality", Author: "Virginia Eubanks"}, VerbosityNormal, nil)

	assert.Contains(t, prompt, `"Automating Inequality" by Virginia Eubanks`)
	assert.Contains(t, prompt, "third person")
	assert.Contains(t, prompt, "NEVER summarize the whole text")
	assert.NotContains(t, prompt, "IDENTITY OF THIS TEXT")
}

func TestBuildSystemPromptEmbedsIdentityVerbatim(t *testing.T) {
	raw := "CORE COMMITMENTS:\nAutomated systems encode the biases of their makers."
	prompt := BuildSystemPrompt(Persona{Title: "T", IdentityRaw: raw}, VerbosityNormal, nil)
	assert.Contains(t, prompt, raw)
}

func TestBuildSystemPromptVerbosity(t *testing.T) {
	brief := BuildSystemPrompt(Persona{Title: "T"}, VerbosityBrief, nil)
	assert.Contains(t, brief, "1-2 sentences")
	assert.Contains(t, brief, `"—"`)

	normal := BuildSystemPrompt(Persona{Title: "T"}, VerbosityNormal, nil)
	assert.Contains(t, normal, "2-4 sentences")
	assert.NotContains(t, normal, `"—"`)
}

func TestBuildSystemPromptEngagementHint(t *testing.T) {
	hint := &EngagementEntry{SourceID: "p1", Type: EngageChallenges, Angle: "disputes neutrality claims"}
	prompt := BuildSystemPrompt(Persona{Title: "T"}, VerbosityNormal, hint)
	assert.Contains(t, prompt, "challenges")
	assert.Contains(t, prompt, "disputes neutrality claims")
}

func TestBuildUserPromptOrder(t *testing.T) {
	prompt := BuildUserPrompt(UserPromptInput{
		Passage:  "the passage",
		Question: "what about bias?",
		FullText: "entire document body",
		History: []conversation.HistoryItem{
			{Question: "earlier question", Response: "earlier response"},
		},
	})

	fullIdx := strings.Index(prompt, "FULL TEXT OF SOURCE")
	passageIdx := strings.Index(prompt, `"the passage"`)
	historyIdx := strings.Index(prompt, "PREVIOUS ANALYSIS")
	questionIdx := strings.Index(prompt, "what about bias?")

	require.True(t, fullIdx >= 0 && passageIdx >= 0 && historyIdx >= 0 && questionIdx >= 0)
	assert.Less(t, fullIdx, passageIdx)
	assert.Less(t, passageIdx, historyIdx)
	assert.Less(t, historyIdx, questionIdx)
}

func TestBuildUserPromptOmitsFullTextWhenEmpty(t *testing.T) {
	prompt := BuildUserPrompt(UserPromptInput{Passage: "p"})
	assert.NotContains(t, prompt, "FULL TEXT OF SOURCE")
}

func TestBuildUserPromptDefaultInstructionOnlyWithoutHistory(t *testing.T) {
	fresh := BuildUserPrompt(UserPromptInput{Passage: "p"})
	assert.Contains(t, fresh, "affirm, challenge, or add")

	followUp := BuildUserPrompt(UserPromptInput{
		Passage: "p",
		History: []conversation.HistoryItem{{Response: "prior take"}},
	})
	assert.NotContains(t, followUp, "affirm, challenge, or add")
	// No trailing instruction at all; the model continues the thread.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(followUp), "prior take"))
}

func TestBuildUserPromptQuestionWinsOverDefault(t *testing.T) {
	prompt := BuildUserPrompt(UserPromptInput{Passage: "p", Question: "why?"})
	assert.Contains(t, prompt, "why?")
	assert.NotContains(t, prompt, "affirm, challenge, or add")
}

func TestBuildUserPromptReplyContext(t *testing.T) {
	prompt := BuildUserPrompt(UserPromptInput{Passage: "p", ReplyTo: "a rival reading"})
	assert.Contains(t, prompt, `"a rival reading"`)
}

func TestBuildUserPromptHistoryIncludesQuestions(t *testing.T) {
	prompt := BuildUserPrompt(UserPromptInput{
		Passage: "p",
		History: []conversation.HistoryItem{
			{Question: "first q", Response: "first r"},
			{Response: "second r"},
		},
	})
	firstQ := strings.Index(prompt, "first q")
	firstR := strings.Index(prompt, "first r")
	secondR := strings.Index(prompt, "second r")
	require.True(t, firstQ >= 0 && firstR >= 0 && secondR >= 0)
	assert.Less(t, firstQ, firstR)
	assert.Less(t, firstR, secondR)
}
