package service

import (
	"errors"
	"testing"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParsedQuery(t *testing.T) {
	v := validation.New()

	t.Run("full document", func(t *testing.T) {
		query, err := DecodeParsedQuery([]byte(`{
			"rating": {"min": 4},
			"category": "maintenance",
			"platform": "tiktok",
			"shareStatus": "public",
			"tags": ["ABC123456a"],
			"keywords": [" 清潔 "],
			"sortBy": "viewCount",
			"sortOrder": "asc"
		}`), v)
		require.NoError(t, err)
		require.NotNil(t, query.Rating)
		assert.Equal(t, 4, *query.Rating.Min)
		assert.Nil(t, query.Rating.Max)
		assert.Equal(t, model.CategoryMaintenance, *query.Category)
		assert.Equal(t, model.PlatformTikTok, *query.Platform)
		assert.Equal(t, []string{"清潔"}, query.Keywords)
		assert.Equal(t, model.SortByViewCount, *query.SortBy)
	})

	t.Run("strict-mode nulls fold to absence", func(t *testing.T) {
		query, err := DecodeParsedQuery([]byte(`{"rating":{"min":null,"max":null},"category":null,"platform":null,"shareStatus":null,"tags":null,"keywords":[],"sortBy":null,"sortOrder":null}`), v)
		require.NoError(t, err)
		assert.Equal(t, &model.ParsedQuery{}, query)
	})

	t.Run("empty object", func(t *testing.T) {
		query, err := DecodeParsedQuery([]byte(` {} `), v)
		require.NoError(t, err)
		assert.Equal(t, &model.ParsedQuery{}, query)
	})

	structural := []struct {
		name  string
		input string
	}{
		{"not an object", `["rating"]`},
		{"empty", ``},
		{"prose", `Sure! {"platform":"tiktok"}`},
		{"unknown field", `{"platform":"tiktok","mood":"happy"}`},
		{"unknown nested field", `{"rating":{"min":4,"avg":3}}`},
		{"trailing data", `{"platform":"tiktok"} {"platform":"youtube"}`},
		{"wrong type", `{"rating":{"min":"four"}}`},
		{"fractional rating", `{"rating":{"min":4.5}}`},
		{"key differs by case", `{"Platform":"tiktok"}`},
		{"upper-case keys at both levels", `{"SORTBY":"title","rating":{"MIN":4}}`},
		{"duplicate key", `{"platform":"tiktok","platform":"youtube"}`},
		{"duplicate nested key", `{"rating":{"min":4,"min":2}}`},
	}
	for _, tt := range structural {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParsedQuery([]byte(tt.input), v)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}

	rules := []struct {
		name  string
		input string
		field string
	}{
		{"rating above range", `{"rating":{"max":6}}`, "rating.max"},
		{"rating below range", `{"rating":{"min":0}}`, "rating.min"},
		{"unknown category", `{"category":"cooking"}`, "category"},
		{"unknown platform", `{"platform":"facebook"}`, "platform"},
		{"unknown share status", `{"shareStatus":"unlisted"}`, "shareStatus"},
		{"unknown sort key", `{"sortBy":"popularity"}`, "sortBy"},
		{"unknown sort order", `{"sortOrder":"random"}`, "sortOrder"},
		{"blank keyword", `{"keywords":["  "]}`, "keywords[0]"},
	}
	for _, tt := range rules {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParsedQuery([]byte(tt.input), v)
			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestParsedQuerySchema(t *testing.T) {
	schema := parsedQuerySchema()

	assert.Equal(t, false, schema["additionalProperties"])
	properties := schema["properties"].(map[string]interface{})
	required := schema["required"].([]string)
	assert.Len(t, properties, 8)
	for name := range properties {
		assert.Contains(t, required, name)
	}

	platform := properties["platform"].(map[string]interface{})
	assert.Equal(t, []interface{}{"youtube", "tiktok", "instagram", nil}, platform["enum"])
}

func TestShapeOnly(t *testing.T) {
	shape := shapeOnly(parsedQuerySchema())

	assert.NotContains(t, shape, "required")
	assert.Equal(t, false, shape["additionalProperties"])

	properties := shape["properties"].(map[string]interface{})
	assert.Len(t, properties, 8)
	assert.NotContains(t, properties["platform"], "enum")

	rating := properties["rating"].(map[string]interface{})
	assert.NotContains(t, rating, "required")
	assert.Equal(t, false, rating["additionalProperties"])

	_, err := compiledDocumentSchema()
	require.NoError(t, err)
}
