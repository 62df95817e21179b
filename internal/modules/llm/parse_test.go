package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalObjectPlain(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	err := UnmarshalObject(`{"name":"alpha"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "alpha", out.Name)
}

func TestUnmarshalObjectFenced(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	raw := "```json\n{\"name\":\"beta\"}\n```"
	err := UnmarshalObject(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "beta", out.Name)
}

func TestUnmarshalObjectWithChatter(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	raw := "Sure, here is the result:\n{\"name\":\"gamma\"}\nLet me know if you need more."
	err := UnmarshalObject(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "gamma", out.Name)
}

func TestUnmarshalObjectNoJSON(t *testing.T) {
	var out map[string]interface{}
	err := UnmarshalObject("no json here at all", &out)
	assert.Error(t, err)
}

func TestFirstJSONArray(t *testing.T) {
	arr, ok := FirstJSONArray(`noise [{"a":1},{"a":2}] trailing`)
	require.True(t, ok)
	assert.Equal(t, `[{"a":1},{"a":2}]`, arr)
}

func TestFirstJSONArrayNested(t *testing.T) {
	arr, ok := FirstJSONArray(`[[1,2],[3]]`)
	require.True(t, ok)
	assert.Equal(t, `[[1,2],[3]]`, arr)
}

func TestFirstJSONArrayBracketsInsideStrings(t *testing.T) {
	raw := `[{"angle":"cites [1] and \"]\" markers"}]`
	arr, ok := FirstJSONArray(raw)
	require.True(t, ok)
	assert.Equal(t, raw, arr)
}

func TestFirstJSONArrayAbsent(t *testing.T) {
	_, ok := FirstJSONArray("nothing to see")
	assert.False(t, ok)
}
