package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLine(assistant string) string {
	return `{"messages":[{"role":"system","content":"sys"},{"role":"user","content":"ask"},{"role":"assistant","content":` + assistant + `}]}`
}

func TestValidateCleanCorpus(t *testing.T) {
	corpus := strings.Join([]string{
		validLine(`"{\"title\":\"a\"}"`),
		validLine(`"{\"title\":\"b\"}"`),
		validLine(`"42"`),
	}, "\n")

	result, err := Validate(strings.NewReader(corpus))
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Empty(t, result.Errors)

	// Validating the same corpus again reports the same outcome.
	again, err := Validate(strings.NewReader(corpus))
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

func TestValidateNonJSONAssistant(t *testing.T) {
	corpus := strings.Join([]string{
		validLine(`"{\"title\":\"a\"}"`),
		validLine(`"not json"`),
		validLine(`"{\"title\":\"c\"}"`),
	}, "\n")

	result, err := Validate(strings.NewReader(corpus))
	require.NoError(t, err)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "record 1: assistant content is not valid JSON", result.Errors[0])
}

func TestValidateStructuralDefects(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			"not an object",
			`[1,2,3]`,
			"not a JSON object",
		},
		{
			"extra top-level key",
			`{"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"},{"role":"assistant","content":"{}"}],"extra":1}`,
			`must have exactly one top-level key "messages"`,
		},
		{
			"two messages",
			`{"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}]}`,
			"expected exactly 3 messages, got 2",
		},
		{
			"wrong role order",
			`{"messages":[{"role":"user","content":"u"},{"role":"system","content":"s"},{"role":"assistant","content":"{}"}]}`,
			`message 0: expected role "system", got "user"`,
		},
		{
			"extra message key",
			`{"messages":[{"role":"system","content":"s","name":"x"},{"role":"user","content":"u"},{"role":"assistant","content":"{}"}]}`,
			"message 0 must have exactly the keys role and content",
		},
		{
			"blank content",
			`{"messages":[{"role":"system","content":"s"},{"role":"user","content":"  "},{"role":"assistant","content":"{}"}]}`,
			"message 1: content is empty",
		},
		{
			"non-string content",
			`{"messages":[{"role":"system","content":"s"},{"role":"user","content":7},{"role":"assistant","content":"{}"}]}`,
			"message 1: content is missing or not a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(strings.NewReader(tt.line))
			require.NoError(t, err)
			assert.False(t, result.OK)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "record 0: "+tt.want, result.Errors[0])
		})
	}
}

func TestValidateSkipsBlankLinesWithoutShiftingIndex(t *testing.T) {
	corpus := validLine(`"{}"`) + "\n\n\n" + validLine(`"broken"`) + "\n"

	result, err := Validate(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "record 1:")
}

func TestValidateReportsEveryDefectiveRecord(t *testing.T) {
	corpus := strings.Join([]string{
		validLine(`"oops"`),
		validLine(`"{}"`),
		validLine(`"also bad"`),
	}, "\n")

	result, err := Validate(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "record 0:")
	assert.Contains(t, result.Errors[1], "record 2:")
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	records := []Conversation{{Messages: []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "ask"},
		{Role: "assistant", Content: `{"title":"a"}`},
	}}}
	require.NoError(t, WriteFile(path, records))

	result, err := ValidateFile(path)
	require.NoError(t, err)
	assert.True(t, result.OK)
}
