package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaCache sync.Map // key -> *jsonschema.Schema

func schemaCacheKey(slug string, schema []byte) string {
	sum := sha256.Sum256(schema)
	return slug + ":" + hex.EncodeToString(sum[:])
}

func compileSchema(slug string, schema []byte) (*jsonschema.Schema, error) {
	key := schemaCacheKey(slug, schema)
	if v, ok := schemaCache.Load(key); ok {
		return v.(*jsonschema.Schema), nil
	}
	s, err := jsonschema.CompileString(slug+".json", string(schema))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, s)
	return s, nil
}

func firstLeafValidationError(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	if err == nil {
		return nil
	}
	if len(err.Causes) == 0 {
		return err
	}
	for _, c := range err.Causes {
		if leaf := firstLeafValidationError(c); leaf != nil {
			return leaf
		}
	}
	return err
}

// ValidateParams checks params against the record's discovered input
// schema. Records without a schema always validate; validation is a
// best-effort pre-flight, callers log failures and proceed.
func ValidateParams(rec Record, params map[string]any) error {
	if len(rec.InputSchema) == 0 {
		return nil
	}
	raw, err := json.Marshal(rec.InputSchema)
	if err != nil {
		return fmt.Errorf("marshal input schema for %s: %w", rec.Key(), err)
	}
	s, err := compileSchema(rec.Key(), raw)
	if err != nil {
		return fmt.Errorf("invalid input schema for %s: %w", rec.Key(), err)
	}
	if err := s.Validate(params); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			leaf := firstLeafValidationError(ve)
			loc := leaf.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msg := leaf.Message
			if msg == "" {
				msg = leaf.Error()
			}
			return fmt.Errorf("params validation failed for %s at %s: %s", rec.Key(), loc, msg)
		}
		return fmt.Errorf("params validation failed for %s: %v", rec.Key(), err)
	}
	return nil
}
