// Package llm abstracts the completion capability of the configured LLM
// providers. The rest of the system depends only on Client; which concrete
// provider answers is a configuration concern.
package llm

import (
	"context"
	"errors"
	"strings"

	appcfg "github.com/marginalia-app/core/internal/config"
)

// ErrNoProvider is returned when no enabled provider with an API key is
// configured. Handlers map it to 503.
var ErrNoProvider = errors.New("no enabled AI provider configured")

// Client is the completion capability the pipeline depends on. Streaming
// delivers chunks in generation order; Complete returns the full text
// atomically.
type Client interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
	StreamComplete(ctx context.Context, systemPrompt, prompt string, onToken func(string)) (string, error)
}

// NewClient selects a provider per the assignment (or the first enabled one)
// and returns a Client bound to it.
func NewClient(cfg appcfg.AIConfig, assignment *appcfg.ModelAssignment) (Client, error) {
	provider := selectProvider(cfg, assignment)
	if provider == nil || strings.TrimSpace(provider.APIKey) == "" {
		return nil, ErrNoProvider
	}
	return &providerClient{provider: provider}, nil
}

func selectProvider(cfg appcfg.AIConfig, assignment *appcfg.ModelAssignment) *appcfg.AIProvider {
	var providerID string
	var overrideModel string
	if assignment != nil {
		providerID = strings.TrimSpace(assignment.ProviderID)
		overrideModel = strings.TrimSpace(assignment.Model)
	}

	pick := func(provider appcfg.AIProvider) *appcfg.AIProvider {
		selected := provider
		if overrideModel != "" {
			selected.DefaultModel = overrideModel
		}
		return &selected
	}

	if providerID != "" {
		for _, provider := range cfg.Providers {
			if !provider.Enabled {
				continue
			}
			if strings.TrimSpace(provider.ID) != providerID {
				continue
			}
			return pick(provider)
		}
	}

	for _, provider := range cfg.Providers {
		if !provider.Enabled {
			continue
		}
		return pick(provider)
	}

	return nil
}
