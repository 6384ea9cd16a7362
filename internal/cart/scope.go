package cart

import (
	"context"

	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
)

// ScopeRequiredCode identifies a cart store used outside a live scope.
const ScopeRequiredCode = "CART_SCOPE_REQUIRED"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s as the cart scope.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the cart store installed by NewContext. A missing or
// closed store is a wiring bug and is reported as a misuse error.
func FromContext(ctx context.Context) (*Store, error) {
	s, _ := ctx.Value(ctxKey{}).(*Store)
	if s == nil {
		return nil, apperrors.Misuse(ScopeRequiredCode,
			"cart store accessed outside a cart scope; install one with cart.NewContext")
	}
	if s.isClosed() {
		return nil, errClosed()
	}
	return s, nil
}

// MustFromContext is FromContext for callers that treat misuse as fatal.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

func errClosed() error {
	return apperrors.Misuse(ScopeRequiredCode,
		"cart store used after Close; operations require a live cart scope")
}
