package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsCodeAndMatchesTemplate(t *testing.T) {
	err := Clone(ErrConflict, "pending update already reviewed")

	require.Equal(t, "CONFLICT", err.Code)
	require.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "pending update already reviewed", err.Error())
	assert.True(t, stderrors.Is(err, ErrConflict))
	assert.False(t, stderrors.Is(err, ErrNotFound))
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("dial tcp: timeout"))

	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Error(), "dial tcp")
}

func TestFromErrorUnwrapsWrappedAppErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Clone(ErrNoChanges, ""))

	appErr := FromError(wrapped)
	assert.Equal(t, "NO_CHANGES", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}
