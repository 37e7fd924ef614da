package tenancy

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// FieldError is the field-level validation error shape clients receive
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HTTPController exposes the JSON API. Route handlers only bind, call a
// command handler or guard, and translate outcomes into envelopes.
type HTTPController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auth       Authenticator
	Guard      *MembershipGuard
	ContextKey string

	register  *RegisterUserHandler
	createOrg *CreateOrganisationHandler
	addMember *AddMemberHandler
}

func NewHTTPController(repo RepositoryManager, auth Authenticator) *HTTPController {
	return &HTTPController{
		Logger:     defLogger{},
		Repo:       repo,
		Auth:       auth,
		Guard:      NewMembershipGuard(repo),
		ContextKey: "user",
		register:   NewRegisterUserHandler(repo),
		createOrg:  NewCreateOrganisationHandler(repo),
		addMember:  NewAddMemberHandler(repo),
	}
}

func (a *HTTPController) WithLogger(logger Logger) *HTTPController {
	a.Logger = logger
	a.Guard.WithLogger(logger)
	return a
}

// RegistrationCreate handles POST /auth/register
func (a *HTTPController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegisterUserMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return badRequest(c, "Registration unsuccessful")
	}

	user, err := a.register.Execute(c.UserContext(), *payload)
	if err != nil {
		a.Logger.Error("register execute: %v", err)

		if IsConflictError(err) {
			return unprocessable(c, []FieldError{
				{Field: "email", Message: "email already exists"},
			})
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return unprocessable(c, FormatValidationErrors(richErr))
		}

		return badRequest(c, "Registration unsuccessful")
	}

	token, err := a.Auth.Login(c.UserContext(), user.Email, payload.Password)
	if err != nil {
		a.Logger.Error("register issue token: %v", err)
		return badRequest(c, "Registration unsuccessful")
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(user))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Registration successful",
		"data": fiber.Map{
			"accessToken": token,
			"user":        userPayload(user),
		},
	})
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	}, "login validation failed")
}

// LoginPost handles POST /auth/login
func (a *HTTPController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return authFailed(c)
	}

	if err := payload.Validate(); err != nil {
		return unprocessable(c, FormatValidationErrors(err))
	}

	token, err := a.Auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login failed for %s: %v", payload.Email, err)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryRateLimit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":     "Too many requests",
				"message":    "Too many login attempts, try again later",
				"statusCode": fiber.StatusTooManyRequests,
			})
		}

		return authFailed(c)
	}

	user, err := a.Repo.Users().GetByIdentifier(c.UserContext(), payload.Email)
	if err != nil {
		a.Logger.Error("login load user %s: %v", payload.Email, err)
		return authFailed(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful",
		"data": fiber.Map{
			"accessToken": token,
			"user":        userPayload(user),
		},
	})
}

// OrganisationsList handles GET /api/organisations
func (a *HTTPController) OrganisationsList(c *fiber.Ctx) error {
	userID, err := a.requesterID(c)
	if err != nil {
		return unauthorized(c, "Unable to resolve session")
	}

	records, err := a.Guard.ListOrganisations(c.UserContext(), userID)
	if err != nil {
		a.Logger.Error("list organisations for %s: %v", userID, err)
		return badRequest(c, "Client error")
	}

	orgs := make([]fiber.Map, 0, len(records))
	for _, org := range records {
		orgs = append(orgs, orgPayload(org))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Organisations retrieved",
		"data": fiber.Map{
			"organisations": orgs,
		},
	})
}

// OrganisationCreate handles POST /api/organisations
func (a *HTTPController) OrganisationCreate(c *fiber.Ctx) error {
	userID, err := a.requesterID(c)
	if err != nil {
		return unauthorized(c, "Unable to resolve session")
	}

	payload := new(CreateOrganisationMessage)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("create organisation parse payload: %v", err)
		return badRequest(c, "Client error")
	}
	payload.CreatorID = userID

	org, err := a.createOrg.Execute(c.UserContext(), *payload)
	if err != nil {
		a.Logger.Error("create organisation: %v", err)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return unprocessable(c, FormatValidationErrors(richErr))
		}

		return badRequest(c, "Client error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Organisation created successfully",
		"data":    orgPayload(org),
	})
}

// OrganisationShow handles GET /api/organisations/:orgId
func (a *HTTPController) OrganisationShow(c *fiber.Ctx) error {
	userID, err := a.requesterID(c)
	if err != nil {
		return unauthorized(c, "Unable to resolve session")
	}

	org, err := a.Guard.GetOrganisation(c.UserContext(), userID, c.Params("orgId"))
	if err != nil {
		if goerrors.IsNotFound(err) {
			return notFound(c, "Organisation not found")
		}
		a.Logger.Error("get organisation %s: %v", c.Params("orgId"), err)
		return badRequest(c, "Client error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Organisation retrieved",
		"data":    orgPayload(org),
	})
}

// OrganisationAddUser handles POST /api/organisations/:orgId/users
func (a *HTTPController) OrganisationAddUser(c *fiber.Ctx) error {
	payload := new(AddMemberMessage)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("add member parse payload: %v", err)
		return badRequest(c, "Client error")
	}
	payload.OrgID = c.Params("orgId")

	if err := a.addMember.Execute(c.UserContext(), *payload); err != nil {
		if IsConflictError(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"status":     "Conflict",
				"message":    "User is already associated with this organisation",
				"statusCode": fiber.StatusConflict,
			})
		}

		if goerrors.IsNotFound(err) {
			message := "User not found"
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeOrgNotFound {
				message = "Organisation not found"
			}
			return notFound(c, message)
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return unprocessable(c, FormatValidationErrors(richErr))
		}

		a.Logger.Error("add member: %v", err)
		return badRequest(c, "Client error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User added to organisation successfully",
	})
}

// UserShow handles GET /api/users/:id
func (a *HTTPController) UserShow(c *fiber.Ctx) error {
	userID, err := a.requesterID(c)
	if err != nil {
		return unauthorized(c, "Unable to resolve session")
	}

	user, err := a.Guard.GetUser(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		if goerrors.IsNotFound(err) {
			return notFound(c, "User not found")
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuthz {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":     "Forbidden",
				"message":    "You do not have permission to access this user",
				"statusCode": fiber.StatusForbidden,
			})
		}

		a.Logger.Error("get user %s: %v", c.Params("id"), err)
		return badRequest(c, "Client error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User retrieved",
		"data":    userPayload(user),
	})
}

func (a *HTTPController) requesterID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := GetRouteClaims(c, a.ContextKey)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(claims.UserID())
}

func userPayload(user *User) fiber.Map {
	return fiber.Map{
		"userId":    user.ID.String(),
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"phone":     user.Phone,
	}
}

func orgPayload(org *Organisation) fiber.Map {
	return fiber.Map{
		"orgId":       org.ID.String(),
		"name":        org.Name,
		"description": org.Description,
	}
}

func authFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":     "Bad request",
		"message":    "Authentication failed",
		"statusCode": fiber.StatusUnauthorized,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":     "Unauthorized",
		"message":    message,
		"statusCode": fiber.StatusUnauthorized,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":     "Bad request",
		"message":    message,
		"statusCode": fiber.StatusBadRequest,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":     "Not found",
		"message":    message,
		"statusCode": fiber.StatusNotFound,
	})
}

func unprocessable(c *fiber.Ctx, errs []FieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"errors": errs,
	})
}

// FormatValidationErrors flattens a validation error into the
// field-level shape, sorted by field name so output is stable.
func FormatValidationErrors(err *goerrors.Error) []FieldError {
	if err == nil {
		return nil
	}

	out := []FieldError{}
	for field, message := range err.ValidationMap() {
		out = append(out, FieldError{
			Field:   field,
			Message: fmt.Sprintf("%v", message),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})

	return out
}
