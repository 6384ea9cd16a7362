package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhaag/GoMarketplace/internal/kvstore/memory"
	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
)

func TestFromContext(t *testing.T) {
	s := newTestStore(t, memory.New())
	ctx := NewContext(context.Background(), s)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Same(t, s, MustFromContext(ctx))
}

func TestFromContext_NoScope(t *testing.T) {
	got, err := FromContext(context.Background())

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, apperrors.IsMisuse(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ScopeRequiredCode, appErr.Code)
	assert.Contains(t, appErr.Message, "cart.NewContext")
}

func TestFromContext_NilStore(t *testing.T) {
	_, err := FromContext(NewContext(context.Background(), nil))
	assert.True(t, apperrors.IsMisuse(err))
}

func TestFromContext_ClosedStore(t *testing.T) {
	s := New(memory.New(), testKey)
	require.NoError(t, s.Close(context.Background()))

	_, err := FromContext(NewContext(context.Background(), s))
	require.Error(t, err)
	assert.True(t, apperrors.IsMisuse(err))
	assert.Contains(t, err.Error(), "after Close")
}

func TestMustFromContext_Panics(t *testing.T) {
	assert.PanicsWithError(t,
		"CART_SCOPE_REQUIRED: cart store accessed outside a cart scope; install one with cart.NewContext: api misuse",
		func() { MustFromContext(context.Background()) },
	)
}
