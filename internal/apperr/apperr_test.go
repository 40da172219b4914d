package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("handler: %w", Validation("slot.create", "start must be before end"))
	require.Equal(t, KindValidation, KindOf(err))
	require.True(t, Is(err, KindValidation))
	require.False(t, Is(nil, KindValidation))

	require.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestPublicMessage(t *testing.T) {
	require.Equal(t, "slot overlaps", PublicMessage(Conflict("op", "slot overlaps")))
	require.Equal(t, "internal server error", PublicMessage(Internal("op", errors.New("pq: secret detail"))))
	require.Equal(t, "internal server error", PublicMessage(errors.New("raw")))
	require.Equal(t, "payment was not completed", PublicMessage(Payment("op", errors.New("card declined"))))
}

func TestUnwrap(t *testing.T) {
	root := errors.New("connection refused")
	err := Network("presence.get", root)
	require.ErrorIs(t, err, root)
	require.Contains(t, err.Error(), "presence.get")
}
