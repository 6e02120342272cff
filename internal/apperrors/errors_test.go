package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
)

func TestNewNotFoundError(t *testing.T) {
	err := apperrors.NewNotFoundError("listing listing-1 not found")

	// Sentinel checks on the wrapped error must keep working so callers can
	// branch on ErrNotFound without caring which resource was missing.
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, err.Code)
	assert.Contains(t, err.Error(), "listing-1")
}

func TestAppErrorUnwrapsJoinedSentinels(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := apperrors.NewAppError(502, "custody provider unreachable", errors.Join(apperrors.ErrProvider, cause))

	assert.ErrorIs(t, err, apperrors.ErrProvider)
	assert.Contains(t, err.Error(), "connection refused")
}
