package tenancy

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AddMemberMessage struct {
	OrgID  string `json:"-"`
	UserID string `json:"userId"`
}

func (e AddMemberMessage) Type() string { return "organisation.add_member" }

func (e AddMemberMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.OrgID, validation.Required, is.UUIDv4),
			validation.Field(&e.UserID, validation.Required, is.UUIDv4),
		)
	}, "add member validation failed")
}

// AddMemberHandler links an existing user to an existing organisation.
// Any authenticated caller may add members. Adding a user twice is a
// conflict, detected by the unique index rather than a lookup first.
type AddMemberHandler struct {
	repo RepositoryManager
}

func NewAddMemberHandler(repo RepositoryManager) *AddMemberHandler {
	return &AddMemberHandler{repo: repo}
}

func (h *AddMemberHandler) Execute(ctx context.Context, event AddMemberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while adding member",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AddMemberHandler) execute(ctx context.Context, event AddMemberMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	orgID, err := uuid.Parse(event.OrgID)
	if err != nil {
		return ErrOrganisationNotFound
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		orgExists, err := tx.NewSelect().
			Model((*Organisation)(nil)).
			Where("?TableAlias.id = ?", orgID).
			Exists(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load organisation")
		}
		if !orgExists {
			return ErrOrganisationNotFound
		}

		userExists, err := tx.NewSelect().
			Model((*User)(nil)).
			Where("?TableAlias.id = ?", userID).
			Exists(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load user")
		}
		if !userExists {
			return ErrUserNotFound
		}

		if _, err := h.repo.Memberships().LinkTx(ctx, tx, userID, orgID); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "add member transaction failed")
	}

	return nil
}
