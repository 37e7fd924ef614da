package tenancy

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-tenancy/middleware/jwtware"
)

// GetRouteClaims pulls the validated claims the JWT middleware stored
// in the route context.
func GetRouteClaims(c *fiber.Ctx, key string) (AuthClaims, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := val.(AuthClaims)
	if !ok {
		return nil, ErrUnableToDecodeSession
	}

	return claims, nil
}

// TokenValidatorAdapter bridges the package token validator to the one
// the middleware expects without an import cycle.
func TokenValidatorAdapter(validator TokenValidator) jwtware.TokenValidator {
	return tokenValidatorAdapter{validator: validator}
}

type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RegisterRoutes mounts the public auth endpoints and the protected API
// group. Everything under /api goes through the JWT middleware.
func RegisterRoutes(app *fiber.App, controller *HTTPController, opts Config, validator TokenValidator) {
	controller.ContextKey = opts.GetContextKey()

	app.Post("/auth/register", controller.RegistrationCreate)
	app.Post("/auth/login", controller.LoginPost)

	protected := jwtware.New(jwtware.Config{
		ContextKey:      opts.GetContextKey(),
		TokenLookup:     opts.GetTokenLookup(),
		AuthScheme:      opts.GetAuthScheme(),
		TokenValidator:  TokenValidatorAdapter(validator),
		ContextEnricher: ContextEnricherAdapter,
	})

	api := app.Group("/api", protected)
	api.Get("/organisations", controller.OrganisationsList)
	api.Post("/organisations", controller.OrganisationCreate)
	api.Get("/organisations/:orgId", controller.OrganisationShow)
	api.Post("/organisations/:orgId/users", controller.OrganisationAddUser)
	api.Get("/users/:id", controller.UserShow)
}
