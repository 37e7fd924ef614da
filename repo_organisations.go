package tenancy

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Organisations interface {
	repository.Repository[*Organisation]

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organisation, error)
	ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Organisation, error)
	GetForUser(ctx context.Context, userID, orgID uuid.UUID) (*Organisation, error)
	GetForUserTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (*Organisation, error)
	Create(ctx context.Context, record *Organisation, criteria ...repository.InsertCriteria) (*Organisation, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Organisation, criteria ...repository.InsertCriteria) (*Organisation, error)
}

type organisations struct {
	repository.Repository[*Organisation]
	db *bun.DB
}

var (
	_ Organisations                        = (*organisations)(nil)
	_ repository.Repository[*Organisation] = (*organisations)(nil)
)

func NewOrganisationsRepository(db *bun.DB) Organisations {
	repo := repository.NewRepository[*Organisation](db, repository.ModelHandlers[*Organisation]{
		NewRecord: func() *Organisation { return &Organisation{} },
		GetID: func(o *Organisation) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Organisation, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &organisations{
		Repository: repo,
		db:         db,
	}
}

// ListForUser returns every organisation the given user belongs to.
func (a *organisations) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organisation, error) {
	return a.ListForUserTx(ctx, a.db, userID)
}

func (a *organisations) ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Organisation, error) {
	records := []*Organisation{}

	err := tx.NewSelect().
		Model(&records).
		Join(`JOIN "memberships" AS "mbr" ON "mbr"."org_id" = "org"."id"`).
		Where(`"mbr"."user_id" = ?`, userID).
		Order("org.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetForUser fetches a single organisation but only when the user is a
// member of it. A miss and an inaccessible record look the same to
// callers, both come back as a record not found.
func (a *organisations) GetForUser(ctx context.Context, userID, orgID uuid.UUID) (*Organisation, error) {
	return a.GetForUserTx(ctx, a.db, userID, orgID)
}

func (a *organisations) GetForUserTx(ctx context.Context, tx bun.IDB, userID, orgID uuid.UUID) (*Organisation, error) {
	record := &Organisation{}

	err := tx.NewSelect().
		Model(record).
		Join(`JOIN "memberships" AS "mbr" ON "mbr"."org_id" = "org"."id"`).
		Where(`"mbr"."user_id" = ?`, userID).
		Where(`"org"."id" = ?`, orgID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"org_id":  orgID.String(),
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *organisations) Create(ctx context.Context, record *Organisation, criteria ...repository.InsertCriteria) (*Organisation, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *organisations) CreateTx(ctx context.Context, tx bun.IDB, record *Organisation, criteria ...repository.InsertCriteria) (*Organisation, error) {
	prepareOrganisationDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareOrganisationDefaults(record *Organisation) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
