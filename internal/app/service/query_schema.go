package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "parsed_query.json"

var (
	documentSchemaOnce sync.Once
	documentSchema     *jsonschema.Schema
	documentSchemaErr  error
)

// ErrInvalidFilter wraps structural decode failures of a ParsedQuery document.
var ErrInvalidFilter = errors.New("invalid search filter")

// DecodeParsedQuery decodes exactly one JSON object into a ParsedQuery,
// rejecting duplicate keys, keys that differ from the schema only by case,
// unknown properties and trailing data, then validates it.
// Rule violations are returned as *validation.Error.
func DecodeParsedQuery(data []byte, v *validation.Validator) (*model.ParsedQuery, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidFilter)
	}

	if err := rejectDuplicateKeys(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	// encoding/json matches field names case-insensitively; the schema does not.
	if err := validateDocumentShape(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var query model.ParsedQuery
	if err := dec.Decode(&query); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrInvalidFilter)
	}

	normalizeParsedQuery(&query)

	if err := v.Validate(query); err != nil {
		return nil, err
	}
	return &query, nil
}

// rejectDuplicateKeys walks the token stream and fails on any object that
// repeats a key at any depth.
func rejectDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return walkJSONValue(dec)
}

func walkJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("unexpected object key %v", keyTok)
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate key %q", key)
			}
			seen[key] = struct{}{}
			if err := walkJSONValue(dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := walkJSONValue(dec); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	_, err = dec.Token()
	return err
}

// validateDocumentShape checks property names and JSON types against the
// closed document schema. Enum and range rules are left to the validator so
// they surface as field errors.
func validateDocumentShape(data []byte) error {
	schema, err := compiledDocumentSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

func compiledDocumentSchema() (*jsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		raw, err := json.Marshal(shapeOnly(parsedQuerySchema()))
		if err != nil {
			documentSchemaErr = err
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			documentSchemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, doc); err != nil {
			documentSchemaErr = err
			return
		}
		documentSchema, documentSchemaErr = c.Compile(documentSchemaURL)
	})
	return documentSchema, documentSchemaErr
}

// shapeOnly copies a schema without "required" and "enum", so callers may
// omit properties and enum values reach the validator.
func shapeOnly(schema map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))
	for key, value := range schema {
		switch key {
		case "required", "enum", "description":
			continue
		}
		switch typed := value.(type) {
		case map[string]interface{}:
			if key == "properties" {
				props := make(map[string]interface{}, len(typed))
				for name, prop := range typed {
					props[name] = shapeOnly(prop.(map[string]interface{}))
				}
				out[key] = props
				continue
			}
			out[key] = shapeOnly(typed)
		default:
			out[key] = value
		}
	}
	return out
}

// normalizeParsedQuery folds explicit nulls and empty containers into absence.
func normalizeParsedQuery(q *model.ParsedQuery) {
	if q.Rating != nil && q.Rating.Min == nil && q.Rating.Max == nil {
		q.Rating = nil
	}
	q.Tags = trimStrings(q.Tags)
	q.Keywords = trimStrings(q.Keywords)
}

func trimStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, s := range values {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func nullable(schemaType string) []interface{} {
	return []interface{}{schemaType, "null"}
}

func nullableEnum(values ...string) map[string]interface{} {
	enum := make([]interface{}, 0, len(values)+1)
	for _, v := range values {
		enum = append(enum, v)
	}
	enum = append(enum, nil)
	return map[string]interface{}{
		"type": nullable("string"),
		"enum": enum,
	}
}

// parsedQuerySchema is the strict-mode response schema sent to the model.
// Every property is required and nullable; absent fields come back as null.
func parsedQuerySchema() map[string]interface{} {
	ratingBound := map[string]interface{}{
		"type":        nullable("integer"),
		"description": "1 到 5 的整數",
	}
	stringList := map[string]interface{}{
		"type":  nullable("array"),
		"items": map[string]interface{}{"type": "string"},
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"rating": map[string]interface{}{
				"type": nullable("object"),
				"properties": map[string]interface{}{
					"min": ratingBound,
					"max": ratingBound,
				},
				"required":             []string{"min", "max"},
				"additionalProperties": false,
			},
			"category": nullableEnum(
				string(model.CategoryProductIntro),
				string(model.CategoryMaintenance),
				string(model.CategoryTroubleshooting),
				string(model.CategoryInstallation),
				string(model.CategoryOther),
			),
			"platform": nullableEnum(
				string(model.PlatformYouTube),
				string(model.PlatformTikTok),
				string(model.PlatformInstagram),
			),
			"shareStatus": nullableEnum(string(model.SharePrivate), string(model.SharePublic)),
			"tags":        stringList,
			"keywords":    stringList,
			"sortBy": nullableEnum(
				string(model.SortByRating),
				string(model.SortByViewCount),
				string(model.SortByCreatedAt),
				string(model.SortByTitle),
			),
			"sortOrder": nullableEnum(string(model.SortAsc), string(model.SortDesc)),
		},
		"required":             []string{"rating", "category", "platform", "shareStatus", "tags", "keywords", "sortBy", "sortOrder"},
		"additionalProperties": false,
	}
}
