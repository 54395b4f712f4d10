package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/apperr"
)

func TestParseQuiz_FencedJSON(t *testing.T) {
	raw := "```json\n[\n  {\"question\":\"Q1?\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"correctIndex\":2,\"explanation\":\"because\"},\n  {\"question\":\"Q2?\",\"options\":[\"W\",\"X\",\"Y\",\"Z\"],\"correctIndex\":0,\"explanation\":\"obviously\"}\n]\n```"

	questions, err := ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Q1?", questions[0].Question)
	assert.Equal(t, []string{"A", "B", "C", "D"}, questions[0].Options)
	assert.Equal(t, 2, questions[0].CorrectIndex)
	assert.Equal(t, "because", questions[0].Explanation)
	assert.Equal(t, 0, questions[1].CorrectIndex)
}

func TestParseQuiz_BareArray(t *testing.T) {
	raw := `[{"question":"What does photosynthesis convert?","options":["Light","Sound","Heat","Mass"],"correctIndex":0,"explanation":"..."}]`

	questions, err := ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 0, questions[0].CorrectIndex)
}

func TestParseQuiz_SurroundingProse(t *testing.T) {
	raw := "Sure! Here are your questions:\n[{\"question\":\"Q?\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"correctIndex\":1,\"explanation\":\"e\"}]"

	questions, err := ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, questions[0].CorrectIndex)
}

func TestParseQuiz_NoArray(t *testing.T) {
	questions, err := ParseQuiz("I cannot generate a quiz from this document.")
	assert.Empty(t, questions)

	var parseErr *apperr.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseQuiz_MalformedJSON(t *testing.T) {
	questions, err := ParseQuiz("[{\"question\": \"unterminated\"")
	assert.Empty(t, questions)

	var parseErr *apperr.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseQuiz_NotAnArrayOfQuestions(t *testing.T) {
	questions, err := ParseQuiz(`{"question":"Q?"}`)
	assert.Empty(t, questions)
	require.Error(t, err)
}

func TestParseQuiz_EmptyArray(t *testing.T) {
	questions, err := ParseQuiz("[]")
	require.NoError(t, err)
	assert.Empty(t, questions)
}
