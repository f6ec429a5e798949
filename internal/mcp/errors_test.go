package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/braint-ru/catalog/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{
			name:     "not found carries suggestion",
			err:      cerrors.NotFound("zink").WithSuggestion("Did you mean: zinc?"),
			wantCode: ErrCodeArticleNotFound,
			contains: "Did you mean: zinc?",
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("get: %w", cerrors.NotFound("x")),
			wantCode: ErrCodeArticleNotFound,
		},
		{
			name:     "source failure is internal",
			err:      cerrors.SourceUnavailable("public/articles", errors.New("permission denied")),
			wantCode: ErrCodeInternalError,
			contains: "Internal server error.",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      fmt.Errorf("load: %w", context.Canceled),
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			if tt.contains != "" {
				assert.Contains(t, got.Message, tt.contains)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_InternalDetailsHidden(t *testing.T) {
	// Given: an internal error whose cause names a file path
	err := cerrors.InternalError("rebuild failed", errors.New("/secret/path: EIO"))

	// When: mapped for the client
	got := MapError(err)

	// Then: the path does not leak
	assert.NotContains(t, got.Message, "/secret/path")
}

func TestMapError_PassesThroughMCPError(t *testing.T) {
	orig := NewInvalidParamsError("id parameter is required")

	got := MapError(fmt.Errorf("wrapped: %w", orig))

	assert.Same(t, orig, got)
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("nope")

	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Equal(t, "MCP error -32601: Tool 'nope' not found.", err.Error())
}
