package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageLimits(t *testing.T) {
	limits := PageLimits{Default: 20, Max: 100}

	limit, err := limits.Limit(0)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	limit, err = limits.Limit(500)
	require.NoError(t, err)
	assert.Equal(t, 100, limit)

	limit, err = limits.Limit(7)
	require.NoError(t, err)
	assert.Equal(t, 7, limit)

	_, err = limits.Limit(-1)
	assert.ErrorIs(t, err, ErrInvalidPagination)

	_, _, err = limits.Page(10, -5)
	assert.ErrorIs(t, err, ErrInvalidPagination)

	assert.Equal(t, DefaultPageLimits, PageLimits{}.orDefault())
}
