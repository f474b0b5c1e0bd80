package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names accepted by Validate.
const (
	SchemaRecord     = "record.json"
	SchemaTOC        = "toc.json"
	SchemaSyncReport = "sync_report.json"
)

const nullableInt = `{"type": ["integer", "null"]}`
const nullableString = `{"type": ["string", "null"]}`

var schemaSources = map[string]string{
	SchemaRecord: `{
  "type": "object",
  "required": ["id", "sequence_id", "unit_id", "unit_name", "chapter_id", "chapter_name",
               "page_number", "pdf_page", "block_index", "content_type", "semantic_role", "text"],
  "properties": {
    "id": {"type": "string", "pattern": "^u(None|\\d+)_c(None|\\d+)_p(None|-?\\d+)_b\\d+$"},
    "sequence_id": {"type": "integer", "minimum": 1},
    "unit_id": ` + nullableInt + `,
    "unit_name": ` + nullableString + `,
    "chapter_id": ` + nullableInt + `,
    "chapter_name": ` + nullableString + `,
    "page_number": ` + nullableInt + `,
    "pdf_page": {"type": "integer", "minimum": 1},
    "block_index": {"type": "integer", "minimum": 1},
    "content_type": {"enum": ["text", "equation", "figure", "table"]},
    "semantic_role": {"type": "string"},
    "text": {"type": "string"},
    "caption": {"type": "string"}
  }
}`,
	SchemaTOC: `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["chapter_id", "chapter_name", "start_page", "end_page"],
    "properties": {
      "unit_id": ` + nullableInt + `,
      "unit_name": ` + nullableString + `,
      "chapter_id": {"type": "integer", "minimum": 0},
      "chapter_name": {"type": "string", "minLength": 1},
      "start_page": ` + nullableInt + `,
      "end_page": ` + nullableInt + `
    }
  }
}`,
	SchemaSyncReport: `{
  "type": "object",
  "required": ["pdf_filename", "toc_pages", "content_start_page", "anchor_used"],
  "properties": {
    "pdf_filename": {"type": "string"},
    "toc_pages": {"type": "array", "items": {"type": "integer", "minimum": 1}},
    "content_start_page": {"type": "integer", "minimum": 1},
    "anchor_used": {"type": "string", "minLength": 1}
  }
}`,
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for name, src := range schemaSources {
			if err := compiler.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
				schemasErr = fmt.Errorf("failed to load schema %s: %w", name, err)
				return
			}
		}
		schemas = make(map[string]*jsonschema.Schema, len(schemaSources))
		for name := range schemaSources {
			s, err := compiler.Compile(name)
			if err != nil {
				schemasErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			schemas[name] = s
		}
	})
	return schemas, schemasErr
}

// Validate checks raw JSON against a named schema.
func Validate(name string, raw []byte) error {
	all, err := compileSchemas()
	if err != nil {
		return err
	}
	schema, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema: %s", name)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s does not match schema: %w", name, err)
	}
	return nil
}

// ValidateValue marshals v and validates it against a named schema.
func ValidateValue(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return Validate(name, raw)
}
