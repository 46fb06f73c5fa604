// Package schema wraps JSON schema validation of configuration values.
//
// Schemas are declared as plain maps, so they can be composed into larger
// schemas and printed by the schema command, while a compiled validator is
// kept alongside for validating values loaded from YAML.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a JSON schema document and its compiled validator.
type Schema struct {
	raw      map[string]interface{}
	compiled *jsonschema.Schema
}

// ValidationError is returned when a value doesn't satisfy a Schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

// Cause returns the underlying validation error
func (e *ValidationError) Cause() error {
	return e.Err
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var resourceCount int64

// Compile compiles raw into a Schema.
func Compile(raw map[string]interface{}) (*Schema, error) {
	doc, err := normalize(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse schema")
	}

	// Each schema gets a unique resource name, so that compilers never collide
	url := fmt.Sprintf("schema-%d.json", atomic.AddInt64(&resourceCount, 1))
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, errors.Wrap(err, "failed to add schema resource")
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile schema")
	}
	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. Use this for schemas
// declared at init time.
func MustCompile(raw map[string]interface{}) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(fmt.Sprintf("invalid schema declaration: %s", err))
	}
	return s
}

// Raw returns the schema document, this may be embedded in other schemas.
func (s *Schema) Raw() map[string]interface{} {
	return s.raw
}

// Validate returns a *ValidationError if value doesn't satisfy the schema.
func (s *Schema) Validate(value interface{}) error {
	doc, err := normalize(value)
	if err != nil {
		return &ValidationError{Err: err}
	}
	if err := s.compiled.Validate(doc); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Map validates value and maps it onto target using JSON struct tags.
func (s *Schema) Map(value interface{}, target interface{}) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to serialize value")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, "failed to map value")
	}
	return nil
}

// MustMap is like Map, but panics if value cannot be mapped for any other
// reason than failing validation. Use this when the value has already been
// validated by the caller, and failure would be a contract violation.
func (s *Schema) MustMap(value interface{}, target interface{}) error {
	err := s.Map(value, target)
	if err != nil {
		if _, ok := err.(*ValidationError); !ok {
			panic(fmt.Sprintf("schema.MustMap: %s", err))
		}
	}
	return err
}

// normalize round-trips value through JSON so the validator only ever sees
// map[string]interface{}, []interface{}, json.Number, string, bool and nil.
func normalize(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
