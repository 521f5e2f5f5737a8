// Package schemavalidation validates JSON-encoded engine records
// (quality reports, battery test results) against bundled JSON Schema
// documents, so that sinks outside this module can trust the wire shape
// without re-deriving it from the Go struct tags.
package schemavalidation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names recognized by Validate.
const (
	QualityReport = "quality-report-v1.schema.json"
	TestResult    = "test-result-v1.schema.json"
)

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileAll() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			compileErr = fmt.Errorf("schemavalidation: read bundled schemas: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		for _, entry := range entries {
			data, err := schemaFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				compileErr = fmt.Errorf("schemavalidation: read %s: %w", entry.Name(), err)
				return
			}
			if err := compiler.AddResource(entry.Name(), bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("schemavalidation: add resource %s: %w", entry.Name(), err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(entries))
		for _, entry := range entries {
			schema, err := compiler.Compile(entry.Name())
			if err != nil {
				compileErr = fmt.Errorf("schemavalidation: compile %s: %w", entry.Name(), err)
				return
			}
			compiled[entry.Name()] = schema
		}
	})
	return compiled, compileErr
}

// Validate checks that instance (a JSON-encoded document) conforms to the
// named bundled schema. schemaName is one of the constants in this package.
func Validate(schemaName string, instance []byte) error {
	schemas, err := compileAll()
	if err != nil {
		return err
	}

	schema, ok := schemas[schemaName]
	if !ok {
		return fmt.Errorf("schemavalidation: unknown schema %q", schemaName)
	}

	var doc any
	if err := json.Unmarshal(instance, &doc); err != nil {
		return fmt.Errorf("schemavalidation: unmarshal instance: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schemavalidation: %s: %w", schemaName, err)
	}
	return nil
}

// ValidateValue marshals v to JSON and validates it against the named
// bundled schema.
func ValidateValue(schemaName string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("schemavalidation: marshal value: %w", err)
	}
	return Validate(schemaName, data)
}
