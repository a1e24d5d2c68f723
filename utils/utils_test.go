package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPageParams(t *testing.T) {
	tests := []struct {
		name          string
		page, perPage string
		want          PageParams
	}{
		{"defaults", "", "", PageParams{Page: 1, PerPage: 15}},
		{"explicit", "3", "20", PageParams{Page: 3, PerPage: 20}},
		{"clamped", "0", "500", PageParams{Page: 1, PerPage: 100}},
		{"garbage", "x", "-2", PageParams{Page: 1, PerPage: 15}},
		{"huge page", "5000000000", "10", PageParams{Page: MaxPage, PerPage: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetPageParams(tt.page, tt.perPage, 15, 100))
		})
	}
}

func TestParseOptionalBool(t *testing.T) {
	assert.Nil(t, ParseOptionalBool(""))
	assert.Nil(t, ParseOptionalBool("yes"))
	require.NotNil(t, ParseOptionalBool("1"))
	assert.True(t, *ParseOptionalBool("1"))
	assert.False(t, *ParseOptionalBool("false"))
}

func TestAppErrorDetail(t *testing.T) {
	internal := NewInternalServerError("Failed to save robot", errors.New("disk full"))
	assert.Equal(t, "disk full", internal.Detail())
	assert.ErrorContains(t, internal, "Failed to save robot")

	bad := NewBadRequestError("Invalid request body", errors.New("unexpected EOF"))
	assert.Empty(t, bad.Detail())
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NewNotFoundError("Robot not found"))
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
