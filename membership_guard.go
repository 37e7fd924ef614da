package tenancy

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// MembershipGuard answers the read side of tenancy: which organisations
// a user can see and which user records they can look up. Access is
// derived from membership rows only, roles play no part here.
type MembershipGuard struct {
	repo   RepositoryManager
	logger Logger
}

func NewMembershipGuard(repo RepositoryManager) *MembershipGuard {
	return &MembershipGuard{
		repo:   repo,
		logger: defLogger{},
	}
}

func (g *MembershipGuard) WithLogger(logger Logger) *MembershipGuard {
	g.logger = logger
	return g
}

// ListOrganisations returns the organisations the user belongs to,
// oldest first. A user with no memberships gets an empty list.
func (g *MembershipGuard) ListOrganisations(ctx context.Context, userID uuid.UUID) ([]*Organisation, error) {
	records, err := g.repo.Organisations().ListForUser(ctx, userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list organisations")
	}

	return records, nil
}

// GetOrganisation fetches one organisation the user belongs to. An
// organisation that exists but does not include the user is
// indistinguishable from one that does not exist, both return
// ErrOrganisationNotFound.
func (g *MembershipGuard) GetOrganisation(ctx context.Context, userID uuid.UUID, orgID string) (*Organisation, error) {
	id, err := uuid.Parse(orgID)
	if err != nil {
		return nil, ErrOrganisationNotFound
	}

	record, err := g.repo.Organisations().GetForUser(ctx, userID, id)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return nil, ErrOrganisationNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not load organisation")
	}

	return record, nil
}

// GetUser fetches a user record on behalf of a requester. Users can
// always fetch themselves. Anyone else is visible only through a shared
// organisation.
func (g *MembershipGuard) GetUser(ctx context.Context, requesterID uuid.UUID, targetID string) (*User, error) {
	id, err := uuid.Parse(targetID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	record, err := g.repo.Users().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not load user")
	}

	if requesterID == id {
		return record, nil
	}

	shared, err := g.repo.Memberships().ShareOrganisation(ctx, requesterID, id)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not check shared membership")
	}

	if !shared {
		g.logger.Debug("user %s denied access to user %s", requesterID, id)
		return nil, ErrMembershipRequired
	}

	return record, nil
}
