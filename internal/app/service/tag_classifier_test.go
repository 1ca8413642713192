package service

import (
	"testing"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected model.TagType
	}{
		{"upper suffix", "ABC123456A", model.TagTypeProductCode},
		{"lower suffix", "abc123456c", model.TagTypeProductCode},
		{"mixed case letters", "aBc123456b", model.TagTypeProductCode},
		{"suffix outside a-c", "ABC123456D", model.TagTypeKeyword},
		{"two letters", "AB123456A", model.TagTypeKeyword},
		{"five digits", "ABC12345A", model.TagTypeKeyword},
		{"seven digits", "ABC1234567A", model.TagTypeKeyword},
		{"missing suffix", "ABC123456", model.TagTypeKeyword},
		{"surrounding space", " ABC123456A", model.TagTypeKeyword},
		{"full-width digits", "ABC１２３４５６A", model.TagTypeKeyword},
		{"cjk", "理料機", model.TagTypeKeyword},
		{"empty", "", model.TagTypeKeyword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTagName(tt.input))
		})
	}
}
