package tenancy_test

import (
	"context"
	"database/sql"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tenancy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, tenancy.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func registerUser(t *testing.T, repo tenancy.RepositoryManager, firstName, lastName, email string) *tenancy.User {
	t.Helper()

	handler := tenancy.NewRegisterUserHandler(repo)
	user, err := handler.Execute(context.Background(), tenancy.RegisterUserMessage{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  "password123",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}

func TestRegisterUserCreatesDefaultOrganisation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	user := registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, tenancy.RoleMember, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "password123", user.PasswordHash)

	orgs, err := repo.Organisations().ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Jane's Organisation", orgs[0].Name)
	assert.Empty(t, orgs[0].Description)

	count, err := db.NewSelect().Model((*tenancy.Membership)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	first := registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	handler := tenancy.NewRegisterUserHandler(repo)
	_, err := handler.Execute(ctx, tenancy.RegisterUserMessage{
		FirstName: "Janet",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "password456",
	})

	require.Error(t, err)
	assert.True(t, tenancy.IsConflictError(err))

	// the first registration is untouched
	users, err := db.NewSelect().Model((*tenancy.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	orgs, err := repo.Organisations().ListForUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	// the failed registration left no orphan organisation behind
	orgCount, err := db.NewSelect().Model((*tenancy.Organisation)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, orgCount)
}

func TestRegisterUserValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)
	handler := tenancy.NewRegisterUserHandler(repo)

	tests := []struct {
		name    string
		message tenancy.RegisterUserMessage
	}{
		{
			name: "Missing email",
			message: tenancy.RegisterUserMessage{
				FirstName: "Jane",
				LastName:  "Doe",
				Password:  "password123",
			},
		},
		{
			name: "Malformed email",
			message: tenancy.RegisterUserMessage{
				FirstName: "Jane",
				LastName:  "Doe",
				Email:     "not-an-email",
				Password:  "password123",
			},
		},
		{
			name: "Missing password",
			message: tenancy.RegisterUserMessage{
				FirstName: "Jane",
				LastName:  "Doe",
				Email:     "jane@example.com",
			},
		},
		{
			name: "Missing first name",
			message: tenancy.RegisterUserMessage{
				LastName: "Doe",
				Email:    "jane@example.com",
				Password: "password123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), tt.message)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
		})
	}
}

func TestCreateOrganisationLinksCreator(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	user := registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	handler := tenancy.NewCreateOrganisationHandler(repo)
	org, err := handler.Execute(ctx, tenancy.CreateOrganisationMessage{
		Name:        "Acme",
		Description: "widgets",
		CreatorID:   user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)

	isMember, err := repo.Memberships().IsMember(ctx, user.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	orgs, err := repo.Organisations().ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, orgs, 2)
}

func TestAddMemberConflict(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	jane := registerUser(t, repo, "Jane", "Doe", "jane@example.com")
	john := registerUser(t, repo, "John", "Smith", "john@example.com")

	janeOrgs, err := repo.Organisations().ListForUser(ctx, jane.ID)
	require.NoError(t, err)
	require.Len(t, janeOrgs, 1)
	orgID := janeOrgs[0].ID

	handler := tenancy.NewAddMemberHandler(repo)

	err = handler.Execute(ctx, tenancy.AddMemberMessage{
		OrgID:  orgID.String(),
		UserID: john.ID.String(),
	})
	require.NoError(t, err)

	err = handler.Execute(ctx, tenancy.AddMemberMessage{
		OrgID:  orgID.String(),
		UserID: john.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, tenancy.IsConflictError(err))

	// exactly one membership row for the pair
	count, err := db.NewSelect().Model((*tenancy.Membership)(nil)).
		Where("user_id = ?", john.ID).
		Where("org_id = ?", orgID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddMemberMissingTargets(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	jane := registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	janeOrgs, err := repo.Organisations().ListForUser(ctx, jane.ID)
	require.NoError(t, err)
	orgID := janeOrgs[0].ID

	handler := tenancy.NewAddMemberHandler(repo)

	t.Run("Unknown organisation", func(t *testing.T) {
		err := handler.Execute(ctx, tenancy.AddMemberMessage{
			OrgID:  uuid.NewString(),
			UserID: jane.ID.String(),
		})
		assert.True(t, goerrors.Is(err, tenancy.ErrOrganisationNotFound))
	})

	t.Run("Unknown user", func(t *testing.T) {
		err := handler.Execute(ctx, tenancy.AddMemberMessage{
			OrgID:  orgID.String(),
			UserID: uuid.NewString(),
		})
		assert.True(t, goerrors.Is(err, tenancy.ErrUserNotFound))
	})
}

func TestMembershipGuardOrganisationAccess(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)
	guard := tenancy.NewMembershipGuard(repo)

	jane := registerUser(t, repo, "Jane", "Doe", "jane@example.com")
	john := registerUser(t, repo, "John", "Smith", "john@example.com")

	janeOrgs, err := repo.Organisations().ListForUser(ctx, jane.ID)
	require.NoError(t, err)
	orgID := janeOrgs[0].ID

	t.Run("Member sees the organisation", func(t *testing.T) {
		org, err := guard.GetOrganisation(ctx, jane.ID, orgID.String())
		require.NoError(t, err)
		assert.Equal(t, "Jane's Organisation", org.Name)
	})

	t.Run("Non member gets not found, never forbidden", func(t *testing.T) {
		_, err := guard.GetOrganisation(ctx, john.ID, orgID.String())
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, tenancy.ErrOrganisationNotFound))

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.NotEqual(t, goerrors.CategoryAuthz, richErr.Category)
	})

	t.Run("Unknown organisation is not found", func(t *testing.T) {
		_, err := guard.GetOrganisation(ctx, jane.ID, uuid.NewString())
		assert.True(t, goerrors.Is(err, tenancy.ErrOrganisationNotFound))
	})

	t.Run("No memberships means an empty list", func(t *testing.T) {
		orgs, err := guard.ListOrganisations(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, orgs)
	})
}

func TestMembershipGuardUserAccess(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)
	guard := tenancy.NewMembershipGuard(repo)

	jane := registerUser(t, repo, "Jane", "Doe", "jane@example.com")
	john := registerUser(t, repo, "John", "Smith", "john@example.com")
	mark := registerUser(t, repo, "Mark", "Jones", "mark@example.com")

	// put John in Jane's organisation so they share one
	janeOrgs, err := repo.Organisations().ListForUser(ctx, jane.ID)
	require.NoError(t, err)
	_, err = repo.Memberships().Link(ctx, john.ID, janeOrgs[0].ID)
	require.NoError(t, err)

	t.Run("Self access always allowed", func(t *testing.T) {
		user, err := guard.GetUser(ctx, jane.ID, jane.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
	})

	t.Run("Shared organisation grants access", func(t *testing.T) {
		user, err := guard.GetUser(ctx, john.ID, jane.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Jane", user.FirstName)
	})

	t.Run("No shared organisation is forbidden", func(t *testing.T) {
		_, err := guard.GetUser(ctx, mark.ID, jane.ID.String())
		assert.True(t, goerrors.Is(err, tenancy.ErrMembershipRequired))
	})

	t.Run("Unknown user is not found", func(t *testing.T) {
		_, err := guard.GetUser(ctx, jane.ID, uuid.NewString())
		assert.True(t, goerrors.Is(err, tenancy.ErrUserNotFound))
	})
}

func TestLoginAgainstStore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	provider := tenancy.NewUserProvider(repo.Users())
	auth := tenancy.NewAuthenticator(provider, newTestConfig())

	t.Run("Correct password issues a token", func(t *testing.T) {
		token, err := auth.Login(ctx, "jane@example.com", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		session, err := auth.SessionFromToken(token)
		require.NoError(t, err)
		assert.True(t, tenancy.HasUserUUID(session))
	})

	t.Run("Wrong password and unknown email match", func(t *testing.T) {
		_, badPassErr := auth.Login(ctx, "jane@example.com", "wrong")
		require.Error(t, badPassErr)

		_, unknownErr := auth.Login(ctx, "ghost@example.com", "wrong")
		require.Error(t, unknownErr)

		assert.Equal(t, badPassErr.Error(), unknownErr.Error())
	})
}

func TestUsersRepositoryTracking(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := tenancy.NewRepositoryManager(db)

	user := registerUser(t, repo, "Jane", "Doe", "jane@example.com")

	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, user))

	got, err := repo.Users().GetByIdentifier(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LoginAttempts)
	assert.NotNil(t, got.LoginAttemptAt)

	require.NoError(t, repo.Users().TrackSucccessfulLogin(ctx, got))

	got, err = repo.Users().GetByIdentifier(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.LoginAttempts)
	assert.Nil(t, got.LoginAttemptAt)
	assert.NotNil(t, got.LoggedInAt)
}
