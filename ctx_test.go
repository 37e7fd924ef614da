package tenancy_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-tenancy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &tenancy.User{
		ID:    uuid.New(),
		Email: "jane@example.com",
	}

	ctx := tenancy.WithContext(context.Background(), user)

	got, ok := tenancy.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestUserContextMissing(t *testing.T) {
	_, ok := tenancy.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &tenancy.JWTClaims{
		UID:      "user-123",
		UserRole: tenancy.RoleMember,
	}

	ctx := tenancy.WithClaimsContext(context.Background(), claims)

	got, ok := tenancy.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-123", got.UserID())
}

func TestClaimsContextMissing(t *testing.T) {
	_, ok := tenancy.GetClaims(context.Background())
	assert.False(t, ok)
}
