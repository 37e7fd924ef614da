package tenancy

import (
	"context"

	"github.com/goliatone/go-tenancy/middleware/jwtware"
)

// ContextEnricherAdapter adapts jwtware.AuthClaims to tenancy.AuthClaims and
// stores the claims in the standard context for downstream use.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}
