package agents

import "strings"

// DefaultContextBudget is the size limit under which a paper's full text is
// embedded into its agent's prompt.
const DefaultContextBudget = 500000

// Budgeter gates whether a paper's full text goes into a prompt or the agent
// falls back to identity-only context. There is no chunking fallback for
// over-budget papers.
type Budgeter struct {
	budget int
}

func NewBudgeter(budget int) *Budgeter {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &Budgeter{budget: budget}
}

// EstimateSize is a deterministic word-count proxy for token count:
// ceil(words * 0.75). Intentionally approximate, not a tokenizer.
func EstimateSize(text string) int {
	words := len(strings.Fields(text))
	return (words*3 + 3) / 4
}

// Fits reports whether text's estimated size is within budget. The boundary
// is inclusive.
func (b *Budgeter) Fits(text string) bool {
	return EstimateSize(text) <= b.budget
}
