package tenancy

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateOrganisationMessage struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   uuid.UUID `json:"-"`
}

func (e CreateOrganisationMessage) Type() string { return "organisation.create" }

func (e CreateOrganisationMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&e.Description, validation.Length(0, 500)),
		)
	}, "organisation validation failed")
}

// CreateOrganisationHandler creates an organisation and links the
// creator as its first member, both inside one transaction.
type CreateOrganisationHandler struct {
	repo RepositoryManager
}

func NewCreateOrganisationHandler(repo RepositoryManager) *CreateOrganisationHandler {
	return &CreateOrganisationHandler{repo: repo}
}

func (h *CreateOrganisationHandler) Execute(ctx context.Context, event CreateOrganisationMessage) (*Organisation, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during organisation creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateOrganisationHandler) execute(ctx context.Context, event CreateOrganisationMessage) (*Organisation, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if event.CreatorID == uuid.Nil {
		return nil, goerrors.New("organisation creator is required", goerrors.CategoryBadInput)
	}

	org := &Organisation{
		Name:        event.Name,
		Description: event.Description,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if org, err = h.repo.Organisations().CreateTx(ctx, tx, org); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create organisation")
		}

		if _, err = h.repo.Memberships().LinkTx(ctx, tx, event.CreatorID, org.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not link creator to organisation")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "organisation creation transaction failed")
	}

	return org, nil
}
