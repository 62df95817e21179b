package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marginalia-app/core/internal/modules/llm"
	"github.com/marginalia-app/core/internal/pkg/redis"
)

// Candidate is the prefilter's summarized view of one paper.
type Candidate struct {
	SourceID   string
	Title      string
	Author     string
	Triggers   string
	Vocabulary []string
}

// Prefilter decides, in a single LLM call, which candidate papers would
// substantively engage a passage and how. It is side-effect-free; caching is
// the caller's concern.
type Prefilter struct {
	client       llm.Client
	defaultAngle string
}

func NewPrefilter(client llm.Client, defaultAngle string) *Prefilter {
	if strings.TrimSpace(defaultAngle) == "" {
		defaultAngle = "has relevant perspective"
	}
	return &Prefilter{client: client, defaultAngle: defaultAngle}
}

const prefilterSystemPrompt = `Role: Relevance judge for a multi-text reading session.

IMPORTANT: Output MUST be a valid JSON array only.
ABSOLUTE: DO NOT wrap the JSON in markdown/code fences.

## Task
Given a passage and a list of texts, decide which texts would substantively
engage the passage and how. Omit texts with nothing real to contribute; an
empty array is a valid answer.

## Requirements (negative-first)
- NEVER include a text just because it shares a broad topic
- NEVER invent ids; use only the ids provided
- type MUST be one of: affirms, extends, challenges, complicates, evidence, reframes, contextualizes
- angle MUST be one short sentence naming what the text would actually say

## Output JSON Format
[{"sourceId":"...","type":"challenges","angle":"..."}]`

// Run issues the prefilter call and parses its verdicts. A parse failure is
// recovered as zero engagements, never an error; an empty result is a
// legitimate outcome the caller must tolerate.
func (p *Prefilter) Run(ctx context.Context, passage string, candidates []Candidate) ([]EngagementEntry, error) {
	if len(candidates) == 0 {
		return []EngagementEntry{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Passage:\n%q\n\nTexts:\n", passage)
	for _, cand := range candidates {
		b.WriteString(summaryLine(cand))
		b.WriteString("\n")
	}

	raw, err := p.client.Complete(ctx, prefilterSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		known[cand.SourceID] = true
	}
	return p.parseEngagements(raw, known), nil
}

// summaryLine compacts one candidate into a single prompt line: id, title,
// author, triggers truncated to 100 runes, and the five most salient
// vocabulary terms.
func summaryLine(cand Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- id: %s | %q", cand.SourceID, cand.Title)
	if strings.TrimSpace(cand.Author) != "" {
		fmt.Fprintf(&b, " by %s", cand.Author)
	}
	if triggers := truncateRunes(cand.Triggers, 100); triggers != "" {
		fmt.Fprintf(&b, " | triggers: %s", triggers)
	}
	vocab := cand.Vocabulary
	if len(vocab) > 5 {
		vocab = vocab[:5]
	}
	if len(vocab) > 0 {
		fmt.Fprintf(&b, " | vocabulary: %s", strings.Join(vocab, ", "))
	}
	return b.String()
}

// parseEngagements accepts two wire shapes: the current array of objects, and
// the older array of bare id strings, which is upgraded with a default type
// and angle. Entries with a foreign type or an unknown id are dropped, never
// coerced.
func (p *Prefilter) parseEngagements(raw string, known map[string]bool) []EngagementEntry {
	arr, ok := llm.FirstJSONArray(raw)
	if !ok {
		return []EngagementEntry{}
	}

	var entries []EngagementEntry
	if err := json.Unmarshal([]byte(arr), &entries); err == nil {
		out := make([]EngagementEntry, 0, len(entries))
		for _, entry := range entries {
			if !known[entry.SourceID] || !ValidEngagementType(entry.Type) {
				continue
			}
			if strings.TrimSpace(entry.Angle) == "" {
				entry.Angle = p.defaultAngle
			}
			out = append(out, entry)
		}
		return out
	}

	var ids []string
	if err := json.Unmarshal([]byte(arr), &ids); err == nil {
		out := make([]EngagementEntry, 0, len(ids))
		for _, id := range ids {
			if !known[id] {
				continue
			}
			out = append(out, EngagementEntry{
				SourceID: id,
				Type:     EngageExtends,
				Angle:    p.defaultAngle,
			})
		}
		return out
	}

	return []EngagementEntry{}
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// PrefilterCache stores verdicts per paragraph so reselecting it does not
// re-invoke the LLM. Entries live until explicitly invalidated.
type PrefilterCache struct {
	rdb *redis.Client
}

func NewPrefilterCache(rdb *redis.Client) *PrefilterCache {
	return &PrefilterCache{rdb: rdb}
}

func prefilterKey(workspaceID, paperID string, paragraphIndex int) string {
	return fmt.Sprintf("marg:prefilter:%s:%s:%d", workspaceID, paperID, paragraphIndex)
}

func (c *PrefilterCache) Get(ctx context.Context, workspaceID, paperID string, paragraphIndex int) ([]EngagementEntry, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	var entries []EngagementEntry
	found, err := c.rdb.GetJSON(ctx, prefilterKey(workspaceID, paperID, paragraphIndex), &entries)
	if err != nil || !found {
		return nil, false
	}
	return entries, true
}

func (c *PrefilterCache) Put(ctx context.Context, workspaceID, paperID string, paragraphIndex int, entries []EngagementEntry) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.SetJSON(ctx, prefilterKey(workspaceID, paperID, paragraphIndex), entries, time.Duration(0))
}

func (c *PrefilterCache) Invalidate(ctx context.Context, workspaceID, paperID string, paragraphIndex int) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, prefilterKey(workspaceID, paperID, paragraphIndex))
}
