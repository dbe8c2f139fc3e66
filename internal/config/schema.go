package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Keys are lowercase because the schema is checked against viper's merged settings.
const settingsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["local_api_endpoint", "working_directory"],
	"properties": {
		"local_api_endpoint": {"type": "string", "minLength": 1},
		"working_directory": {"type": "string", "minLength": 1},
		"model": {"type": "string", "minLength": 1},
		"provider": {"type": "string", "enum": ["openai", "anthropic"]},
		"api_key": {"type": "string"},
		"max_tokens": {"type": "integer", "minimum": 0},
		"request_timeout_seconds": {"type": "integer", "minimum": 0},
		"system_message": {"type": "string"},
		"registry_capacity": {"type": "integer", "minimum": 0},
		"tasks_file": {"type": "string"},
		"inbox_dir": {"type": "string"},
		"shell": {"type": "string", "minLength": 1},
		"memory_db": {"type": "string"},
		"schedules": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "spec", "task"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"spec": {"type": "string", "minLength": 1},
					"task": {"type": "string", "minLength": 1}
				}
			}
		},
		"metrics": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"addr": {"type": "string"}
			}
		},
		"tracing": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"file": {"type": "string"}
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"file": {"type": "string"},
				"console": {"type": "boolean"},
				"pretty": {"type": "boolean"},
				"max_size": {"type": "integer", "minimum": 0},
				"max_age": {"type": "integer", "minimum": 0},
				"compress": {"type": "boolean"},
				"redaction": {"type": "boolean"}
			}
		}
	}
}`

var compiledSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(settingsSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid settings schema: %v", err))
	}
	compiledSchema = schema
}

// ValidateSettings checks merged settings against the settings schema
func ValidateSettings(settings map[string]interface{}) error {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	return nil
}
