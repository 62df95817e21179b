package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateSize(t *testing.T) {
	assert.Equal(t, 0, EstimateSize(""))
	assert.Equal(t, 1, EstimateSize("one"))
	assert.Equal(t, 2, EstimateSize("one two"))
	assert.Equal(t, 3, EstimateSize("one two three four"))
	assert.Equal(t, 75, EstimateSize(strings.TrimSpace(strings.Repeat("word ", 100))))
}

func TestEstimateSizeMonotone(t *testing.T) {
	prev := 0
	text := ""
	for i := 0; i < 50; i++ {
		text += "word "
		size := EstimateSize(text)
		assert.GreaterOrEqual(t, size, prev)
		prev = size
	}
}

func TestFitsBoundary(t *testing.T) {
	b := NewBudgeter(DefaultContextBudget)

	// 666666 words estimate to exactly the default budget; one more word
	// crosses it.
	atBudget := strings.Repeat("w ", 666666)
	assert.Equal(t, DefaultContextBudget, EstimateSize(atBudget))
	assert.True(t, b.Fits(atBudget))
	assert.False(t, b.Fits(atBudget+"w"))
}

func TestFitsCustomBudget(t *testing.T) {
	b := NewBudgeter(3)
	assert.True(t, b.Fits("one two three four"))
	assert.False(t, b.Fits("one two three four five"))
}

func TestBudgeterZeroFallsBackToDefault(t *testing.T) {
	b := NewBudgeter(0)
	assert.True(t, b.Fits("short text"))
}
