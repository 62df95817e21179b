package agents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marginalia-app/core/internal/modules/conversation"
	"github.com/marginalia-app/core/internal/modules/llm"
)

// EventType is the lifecycle of one agent's stream. Every agent terminates
// with done or error regardless of its siblings.
type EventType string

const (
	EventStart EventType = "start"
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one tagged item on the multiplexed stream.
type Event struct {
	SourceID string    `json:"sourceId"`
	Type     EventType `json:"type"`
	Content  string    `json:"content,omitempty"`
}

// Target is one paper the orchestrator invokes an agent for, with everything
// that agent's prompt needs already resolved.
type Target struct {
	SourceID string
	Persona  Persona
	FullText string
	History  []conversation.HistoryItem
	Hint     *EngagementEntry
}

// RespondRequest is one fan-out. Agents never see each other's output unless
// it is passed explicitly through ReplyTo or History.
type RespondRequest struct {
	Passage   string
	Question  string
	ReplyTo   string
	Verbosity string
	Targets   []Target
}

var (
	ErrMissingPassage = errors.New("passage is required")
	ErrNoTargets      = errors.New("at least one target paper is required")
)

// Orchestrator fans out one independent streamed LLM call per target paper
// and multiplexes their events onto a single channel.
type Orchestrator struct {
	client   llm.Client
	budgeter *Budgeter
	timeout  time.Duration
}

func NewOrchestrator(client llm.Client, budgeter *Budgeter, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{client: client, budgeter: budgeter, timeout: timeout}
}

// Respond launches one goroutine per target and returns the event channel.
// The channel closes only after every target has reached a terminal event; a
// join, not a race. Chunks for one sourceId arrive in generation order; no
// ordering holds across sourceIds. Cancelling ctx stops event delivery
// without crashing in-flight calls.
func (o *Orchestrator) Respond(ctx context.Context, req RespondRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.Passage) == "" {
		return nil, ErrMissingPassage
	}
	if len(req.Targets) == 0 {
		return nil, ErrNoTargets
	}

	events := make(chan Event, 16)
	var wg sync.WaitGroup

	for _, target := range req.Targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			o.runAgent(ctx, req, target, events)
		}(target)
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	return events, nil
}

// runAgent drives a single agent to its terminal event. A failure here stays
// scoped to this sourceId; siblings are unaffected.
func (o *Orchestrator) runAgent(ctx context.Context, req RespondRequest, target Target, events chan<- Event) {
	agentCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if !emit(ctx, events, Event{SourceID: target.SourceID, Type: EventStart}) {
		return
	}

	fullText := target.FullText
	if o.budgeter != nil && !o.budgeter.Fits(fullText) {
		fullText = ""
	}

	systemPrompt := BuildSystemPrompt(target.Persona, req.Verbosity, target.Hint)
	userPrompt := BuildUserPrompt(UserPromptInput{
		Passage:  req.Passage,
		Question: req.Question,
		FullText: fullText,
		ReplyTo:  req.ReplyTo,
		History:  target.History,
	})

	result, err := o.client.StreamComplete(agentCtx, systemPrompt, userPrompt, func(token string) {
		emit(ctx, events, Event{SourceID: target.SourceID, Type: EventChunk, Content: token})
	})
	if err != nil {
		emit(ctx, events, Event{SourceID: target.SourceID, Type: EventError, Content: err.Error()})
		return
	}

	emit(ctx, events, Event{SourceID: target.SourceID, Type: EventDone, Content: result})
}

// emit delivers an event unless the consumer is gone. Writes after
// cancellation are no-ops, never panics.
func emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
