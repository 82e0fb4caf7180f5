package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBareObject(t *testing.T) {
	got, err := ExtractJSON(`{"title": "Buy milk"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Buy milk"}`, got)
}

func TestExtractJSONFencedBlock(t *testing.T) {
	reply := "Here you go:\n```json\n{\"title\": \"Buy milk\"}\n```\nHope that helps!"
	got, err := ExtractJSON(reply)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Buy milk"}`, got)
}

func TestExtractJSONFenceWithoutLanguage(t *testing.T) {
	reply := "```\n{\"tags\": [\"errands\"]}\n```"
	got, err := ExtractJSON(reply)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags": ["errands"]}`, got)
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	reply := `Sure! The parsed todo is {"title": "Call dentist", "priority": "high"} as requested.`
	got, err := ExtractJSON(reply)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Call dentist", "priority": "high"}`, got)
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("I could not parse that input, sorry.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractJSONMalformedObject(t *testing.T) {
	_, err := ExtractJSON(`{"title": unquoted}`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestSchemasCompileAndValidate(t *testing.T) {
	schemas, err := compileSchemas()
	require.NoError(t, err)

	assert.NoError(t, validateReply(schemas.parseTodo, `{"title": "Buy milk", "priority": "high", "tags": ["errands"]}`))
	assert.Error(t, validateReply(schemas.parseTodo, `{"priority": "high"}`), "title is required")
	assert.Error(t, validateReply(schemas.parseTodo, `{"title": "x", "priority": "urgent"}`), "priority enum")

	assert.NoError(t, validateReply(schemas.subtasks, `{"subtasks": ["one", "two"]}`))
	assert.Error(t, validateReply(schemas.subtasks, `{"subtasks": "not an array"}`))

	assert.NoError(t, validateReply(schemas.tags, `{"tags": ["home"]}`))
	assert.NoError(t, validateReply(schemas.tags, `{"tags": ["a", "b", "c", "d", "e", "f", "g"]}`), "up to ten tags allowed")
	assert.Error(t, validateReply(schemas.tags, `{"tags": ["a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"]}`), "eleven tags over the cap")
	assert.Error(t, validateReply(schemas.rewrite, `{"title": ""}`), "empty title")
}
