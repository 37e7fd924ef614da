package tenancy

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Memberships interface {
	repository.Repository[*Membership]

	Link(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error)
	LinkTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (*Membership, error)
	IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
	IsMemberTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (bool, error)
	ShareOrganisation(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	ShareOrganisationTx(ctx context.Context, tx bun.IDB, userID, otherID uuid.UUID) (bool, error)
}

type memberships struct {
	repository.Repository[*Membership]
	db *bun.DB
}

var (
	_ Memberships                        = (*memberships)(nil)
	_ repository.Repository[*Membership] = (*memberships)(nil)
)

func NewMembershipsRepository(db *bun.DB) Memberships {
	repo := repository.NewRepository[*Membership](db, repository.ModelHandlers[*Membership]{
		NewRecord: func() *Membership { return &Membership{} },
		GetID: func(m *Membership) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Membership, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &memberships{
		Repository: repo,
		db:         db,
	}
}

// Link associates a user with an organisation. Linking the same pair
// twice returns ErrMembershipExists, the unique index on
// (user_id, org_id) is the source of truth.
func (a *memberships) Link(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error) {
	return a.LinkTx(ctx, a.db, userID, orgID)
}

func (a *memberships) LinkTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (*Membership, error) {
	record := &Membership{
		ID:     uuid.New(),
		UserID: userID,
		OrgID:  orgID,
	}

	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)

	if err != nil {
		if IsUniqueViolation(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, "user is already associated with this organisation").
				WithTextCode(TextCodeMemberExists).
				WithCode(errors.CodeConflict).
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"org_id":  orgID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *memberships) IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	return a.IsMemberTx(ctx, a.db, userID, orgID)
}

func (a *memberships) IsMemberTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Membership)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.org_id = ?", orgID).
		Exists(ctx)
}

// ShareOrganisation reports whether two users belong to at least one
// common organisation. A user always shares with themselves.
func (a *memberships) ShareOrganisation(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return a.ShareOrganisationTx(ctx, a.db, userID, otherID)
}

func (a *memberships) ShareOrganisationTx(ctx context.Context, tx bun.IDB, userID, otherID uuid.UUID) (bool, error) {
	if userID == otherID {
		return true, nil
	}

	return tx.NewSelect().
		Model((*Membership)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where(`?TableAlias.org_id IN (SELECT "org_id" FROM "memberships" WHERE "user_id" = ?)`, otherID).
		Exists(ctx)
}
