package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowedExact(t *testing.T) {
	patterns := []string{"read.marginalia.app"}
	assert.True(t, originAllowed(patterns, "https://read.marginalia.app"))
	assert.False(t, originAllowed(patterns, "https://evil.example.com"))
}

func TestOriginAllowedWildcardSubdomain(t *testing.T) {
	patterns := []string{"*.marginalia.app"}
	assert.True(t, originAllowed(patterns, "https://read.marginalia.app"))
	assert.True(t, originAllowed(patterns, "https://staging.marginalia.app"))
	assert.False(t, originAllowed(patterns, "https://marginalia.evil.com"))
}

func TestOriginAllowedWildcardPort(t *testing.T) {
	patterns := []string{"localhost:*"}
	assert.True(t, originAllowed(patterns, "http://localhost:3000"))
	assert.True(t, originAllowed(patterns, "http://localhost:5173"))
	assert.False(t, originAllowed(patterns, "http://example.com:3000"))
}

func TestOriginAllowedCaseInsensitive(t *testing.T) {
	patterns := []string{"Read.Marginalia.App"}
	assert.True(t, originAllowed(patterns, "https://read.marginalia.app"))
}

func TestOriginAllowedBareHost(t *testing.T) {
	// Origins without a scheme fall back to string matching.
	assert.True(t, originAllowed([]string{"read.marginalia.app"}, "read.marginalia.app"))
}
