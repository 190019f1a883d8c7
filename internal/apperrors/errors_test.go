package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Conflict(CodeItemAlreadyFulfilled, "item %s already fulfilled", "bp-1")
	wrapped := fmt.Errorf("fulfill: %w", err)

	assert.True(t, errors.Is(wrapped, New(KindConflict, CodeItemAlreadyFulfilled, "")))
	assert.False(t, errors.Is(wrapped, New(KindConflict, CodeNothingToClaim, "")))
	assert.Equal(t, "item bp-1 already fulfilled", err.Error())
}

func TestKindAndCodeOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound(CodeOrderNotFound, "order not found")))
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("disk on fire")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("disk on fire")))
	assert.Equal(t, CodeInvalidInput, CodeOf(Validation("bad quantity")))
}

func TestInfrastructureKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Infrastructure("failed to load order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load order: connection refused", err.Error())
}

func TestWithMetadataCopies(t *testing.T) {
	base := Conflict(CodeInsufficientStock, "insufficient stock")
	withMeta := base.WithMetadata(map[string]string{"item_id": "bp-1"})

	assert.Nil(t, base.Metadata)
	assert.Equal(t, "bp-1", withMeta.Metadata["item_id"])
}
