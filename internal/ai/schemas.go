package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Every collaborator action has a schema its reply must satisfy. The schemas
// are compiled once at startup; a reply failing its schema is treated as
// invalid output, never passed through to the caller.

const parseTodoSchema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"due_at": {"type": ["string", "null"]},
		"priority": {"type": ["string", "null"], "enum": ["low", "medium", "high", null]},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

const rewriteSchema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "minLength": 1}
	}
}`

const subtasksSchema = `{
	"type": "object",
	"required": ["subtasks"],
	"properties": {
		"subtasks": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"maxItems": 10
		}
	}
}`

const tagsSchema = `{
	"type": "object",
	"required": ["tags"],
	"properties": {
		"tags": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"maxItems": 10
		}
	}
}`

type replySchemas struct {
	parseTodo *jsonschema.Schema
	rewrite   *jsonschema.Schema
	subtasks  *jsonschema.Schema
	tags      *jsonschema.Schema
}

func compileSchemas() (*replySchemas, error) {
	compile := func(name, raw string) (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	var (
		s   replySchemas
		err error
	)
	if s.parseTodo, err = compile("parse_todo.json", parseTodoSchema); err != nil {
		return nil, err
	}
	if s.rewrite, err = compile("rewrite.json", rewriteSchema); err != nil {
		return nil, err
	}
	if s.subtasks, err = compile("subtasks.json", subtasksSchema); err != nil {
		return nil, err
	}
	if s.tags, err = compile("tags.json", tagsSchema); err != nil {
		return nil, err
	}
	return &s, nil
}

// validateReply checks an extracted JSON object against its action schema.
func validateReply(schema *jsonschema.Schema, raw string) error {
	var obj any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return err
	}
	return schema.Validate(obj)
}
