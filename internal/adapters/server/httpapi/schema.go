package httpapi

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const statusEnum = `["todo", "in-progress", "await-feedback", "done", "progress", "feedback"]`

const taskFields = `
	"title": {"type": "string", "minLength": 1, "maxLength": 200},
	"description": {"type": "string", "maxLength": 4000},
	"status": {"type": "string", "enum": ` + statusEnum + `},
	"due_date": {"type": "string", "format": "date"},
	"priority": {"type": "string", "pattern": "(?i)^(low|medium|urgent)$"},
	"category": {"type": "string", "maxLength": 100},
	"assigned_to": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true},
	"subtasks": {
		"type": "array",
		"items": {
			"type": "object",
			"additionalProperties": false,
			"required": ["title"],
			"properties": {
				"title": {"type": "string", "minLength": 1},
				"done": {"type": "boolean"}
			}
		}
	}`

const createTaskSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["title"],
	"properties": {` + taskFields + `}
}`

const updateTaskSchema = `{
	"type": "object",
	"additionalProperties": false,
	"minProperties": 1,
	"properties": {` + taskFields + `}
}`

const moveTaskSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["status"],
	"properties": {"status": {"type": "string", "enum": ` + statusEnum + `}}
}`

const contactSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["name", "email"],
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 120},
		"email": {"type": "string", "format": "email"},
		"phone": {"type": "string", "maxLength": 40},
		"color": {"type": "string", "pattern": "^#[0-9A-Fa-f]{6}$"}
	}
}`

const signUpSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["name", "email", "password"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"email": {"type": "string", "format": "email"},
		"password": {"type": "string", "minLength": 1}
	}
}`

const loginSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["email", "password"],
	"properties": {
		"email": {"type": "string"},
		"password": {"type": "string"}
	}
}`

// schemas holds the compiled request-body validators.
type schemas struct {
	createTask *jsonschema.Schema
	updateTask *jsonschema.Schema
	moveTask   *jsonschema.Schema
	contact    *jsonschema.Schema
	signUp     *jsonschema.Schema
	login      *jsonschema.Schema
}

func compileSchemas() (schemas, error) {
	var out schemas
	for _, entry := range []struct {
		name   string
		source string
		target **jsonschema.Schema
	}{
		{"create_task.json", createTaskSchema, &out.createTask},
		{"update_task.json", updateTaskSchema, &out.updateTask},
		{"move_task.json", moveTaskSchema, &out.moveTask},
		{"contact.json", contactSchema, &out.contact},
		{"signup.json", signUpSchema, &out.signUp},
		{"login.json", loginSchema, &out.login},
	} {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		url := "mem://join/" + entry.name
		if err := compiler.AddResource(url, strings.NewReader(entry.source)); err != nil {
			return schemas{}, fmt.Errorf("add schema %s: %w", entry.name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return schemas{}, fmt.Errorf("compile schema %s: %w", entry.name, err)
		}
		*entry.target = schema
	}
	return out, nil
}

// schemaErrorMessage returns the first leaf cause as "path: message".
func schemaErrorMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := strings.TrimPrefix(ve.InstanceLocation, "/")
	if location == "" {
		return ve.Message
	}
	return strings.ReplaceAll(location, "/", ".") + ": " + ve.Message
}
