package llm

import (
	"testing"

	appcfg "github.com/marginalia-app/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviders() appcfg.AIConfig {
	return appcfg.AIConfig{
		Providers: []appcfg.AIProvider{
			{ID: "disabled", Type: "OpenAI", APIKey: "k0", Enabled: false},
			{ID: "primary", Type: "Anthropic", APIKey: "k1", DefaultModel: "model-a", Enabled: true},
			{ID: "secondary", Type: "OpenAI", APIKey: "k2", DefaultModel: "model-b", Enabled: true},
		},
	}
}

func TestNewClientPicksFirstEnabled(t *testing.T) {
	client, err := NewClient(testProviders(), nil)
	require.NoError(t, err)

	pc, ok := client.(*providerClient)
	require.True(t, ok)
	assert.Equal(t, "primary", pc.provider.ID)
}

func TestNewClientHonorsAssignment(t *testing.T) {
	client, err := NewClient(testProviders(), &appcfg.ModelAssignment{ProviderID: "secondary"})
	require.NoError(t, err)

	pc := client.(*providerClient)
	assert.Equal(t, "secondary", pc.provider.ID)
	assert.Equal(t, "model-b", pc.provider.DefaultModel)
}

func TestNewClientAssignmentModelOverride(t *testing.T) {
	client, err := NewClient(testProviders(), &appcfg.ModelAssignment{ProviderID: "primary", Model: "model-x"})
	require.NoError(t, err)

	pc := client.(*providerClient)
	assert.Equal(t, "model-x", pc.provider.DefaultModel)
}

func TestNewClientUnknownAssignmentFallsBack(t *testing.T) {
	client, err := NewClient(testProviders(), &appcfg.ModelAssignment{ProviderID: "missing"})
	require.NoError(t, err)

	pc := client.(*providerClient)
	assert.Equal(t, "primary", pc.provider.ID)
}

func TestNewClientNoProvider(t *testing.T) {
	_, err := NewClient(appcfg.AIConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = NewClient(appcfg.AIConfig{
		Providers: []appcfg.AIProvider{{ID: "nokey", Enabled: true}},
	}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", normalizeOpenAIBaseURL(""))
	assert.Equal(t, "https://gw.example.com/v1", normalizeOpenAIBaseURL("https://gw.example.com"))
	assert.Equal(t, "https://gw.example.com/v1", normalizeOpenAIBaseURL("https://gw.example.com/v1/"))
}

func TestNormalizeCompatibleEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com", normalizeCompatibleEndpoint(""))
	assert.Equal(t, "https://gw.example.com", normalizeCompatibleEndpoint("https://gw.example.com/v1"))
	assert.Equal(t, "https://gw.example.com", normalizeCompatibleEndpoint("https://gw.example.com/"))
}
