// Package agents implements the commentary pipeline: deciding which papers
// engage a passage, assembling per-paper prompts, and fanning out concurrent
// streamed responses.
package agents

// EngagementType is how a paper relates to a passage. The set is closed; the
// prefilter drops anything outside it rather than coercing.
type EngagementType string

const (
	EngageAffirms        EngagementType = "affirms"
	EngageExtends        EngagementType = "extends"
	EngageChallenges     EngagementType = "challenges"
	EngageComplicates    EngagementType = "complicates"
	EngageEvidence       EngagementType = "evidence"
	EngageReframes       EngagementType = "reframes"
	EngageContextualizes EngagementType = "contextualizes"
)

var engagementTypes = map[EngagementType]bool{
	EngageAffirms:        true,
	EngageExtends:        true,
	EngageChallenges:     true,
	EngageComplicates:    true,
	EngageEvidence:       true,
	EngageReframes:       true,
	EngageContextualizes: true,
}

// ValidEngagementType reports whether t is one of the seven canonical values.
func ValidEngagementType(t EngagementType) bool {
	return engagementTypes[t]
}

// EngagementEntry is the prefilter's verdict for one (passage, paper) pair.
type EngagementEntry struct {
	SourceID string         `json:"sourceId"`
	Type     EngagementType `json:"type"`
	Angle    string         `json:"angle"`
}
