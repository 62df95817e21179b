package agents

import (
	"fmt"
	"strings"

	"github.com/marginalia-app/core/internal/modules/conversation"
)

// Verbosity modes for agent responses.
const (
	VerbosityBrief  = "brief"
	VerbosityNormal = "normal"
)

// Persona is the prompt-facing view of a paper: who it is and the extracted
// identity text that seeds its voice.
type Persona struct {
	Title       string
	Author      string
	IdentityRaw string
}

// BuildSystemPrompt composes the persona and behavioral rules for one agent
// call. The persona is always "this text" in the third person; responses must
// never speak as "I".
func BuildSystemPrompt(p Persona, verbosity string, hint *EngagementEntry) string {
	var b strings.Builder

	who := fmt.Sprintf("%q", p.Title)
	if strings.TrimSpace(p.Author) != "" {
		who = fmt.Sprintf("%q by %s", p.Title, p.Author)
	}

	b.WriteString("Role: You are the analytical voice of the text ")
	b.WriteString(who)
	b.WriteString(".\n")
	b.WriteString("Speak about what \"this text\" argues, in the third person. NEVER use \"I\" or \"my\". You are not impersonating the author; you are articulating what the text itself holds.\n")

	if strings.TrimSpace(p.IdentityRaw) != "" {
		b.WriteString("\nIDENTITY OF THIS TEXT:\n")
		b.WriteString(strings.TrimSpace(p.IdentityRaw))
		b.WriteString("\n")
	}

	if hint != nil && strings.TrimSpace(hint.Angle) != "" {
		fmt.Fprintf(&b, "\nThis text %s the passage under discussion: %s. Respond from that angle.\n", hint.Type, hint.Angle)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Ground claims in direct quotes from this text whenever possible\n")
	b.WriteString("- NEVER summarize the whole text\n")
	b.WriteString("- NEVER add meta-commentary, hedging, or preambles; state the analysis directly\n")

	switch verbosity {
	case VerbosityBrief:
		b.WriteString("- Respond in 1-2 sentences\n")
		b.WriteString("- If the passage is outside this text's concerns, reply with a single \"—\" and nothing else\n")
	default:
		b.WriteString("- Respond in 2-4 sentences\n")
		b.WriteString("- If the passage is not central to this text's concerns, acknowledge that briefly rather than forcing a connection\n")
	}

	return b.String()
}

// UserPromptInput carries everything one agent call sees about the passage.
// FullText is empty when the budgeter rejected embedding it.
type UserPromptInput struct {
	Passage  string
	Question string
	FullText string
	ReplyTo  string
	History  []conversation.HistoryItem
}

// BuildUserPrompt composes the user prompt in its fixed order: source text,
// quoted passage, reply context, prior analysis, then exactly one trailing
// instruction. When history exists and no new question is asked, nothing is
// appended; the model continues the thread naturally.
func BuildUserPrompt(in UserPromptInput) string {
	var b strings.Builder

	if in.FullText != "" {
		b.WriteString("FULL TEXT OF SOURCE:\n")
		b.WriteString(in.FullText)
		b.WriteString("\n\n")
	}

	b.WriteString("The reader has selected this passage:\n\n")
	fmt.Fprintf(&b, "%q\n", in.Passage)

	if strings.TrimSpace(in.ReplyTo) != "" {
		b.WriteString("\nAnother text has already commented:\n\n")
		fmt.Fprintf(&b, "%q\n", in.ReplyTo)
	}

	if len(in.History) > 0 {
		b.WriteString("\nPREVIOUS ANALYSIS of this passage, in order:\n")
		for _, item := range in.History {
			if strings.TrimSpace(item.Question) != "" {
				fmt.Fprintf(&b, "\nQuestion: %s\n", item.Question)
			}
			fmt.Fprintf(&b, "\nResponse: %s\n", item.Response)
		}
	}

	question := strings.TrimSpace(in.Question)
	switch {
	case question != "":
		fmt.Fprintf(&b, "\n%s", question)
	case len(in.History) == 0:
		b.WriteString("\nWhat does this text affirm, challenge, or add regarding this passage?")
	}

	return b.String()
}
