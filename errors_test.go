package tenancy_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tenancy"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, tenancy.IsTokenExpiredError(tenancy.ErrTokenExpired))
	assert.True(t, tenancy.IsTokenExpiredError(errors.New("token is expired by 1h")))
	assert.False(t, tenancy.IsTokenExpiredError(tenancy.ErrTokenMalformed))
	assert.False(t, tenancy.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, tenancy.IsMalformedError(tenancy.ErrTokenMalformed))
	assert.True(t, tenancy.IsMalformedError(errors.New("token is malformed: could not decode")))
	assert.True(t, tenancy.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, tenancy.IsMalformedError(tenancy.ErrTokenExpired))
	assert.False(t, tenancy.IsMalformedError(nil))
}

func TestIsConflictError(t *testing.T) {
	assert.True(t, tenancy.IsConflictError(tenancy.ErrEmailTaken))
	assert.True(t, tenancy.IsConflictError(tenancy.ErrMembershipExists))
	assert.True(t, tenancy.IsConflictError(
		goerrors.New("some conflict", goerrors.CategoryConflict),
	))
	assert.False(t, tenancy.IsConflictError(tenancy.ErrUserNotFound))
	assert.False(t, tenancy.IsConflictError(errors.New("plain error")))
	assert.False(t, tenancy.IsConflictError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "sqlite spelling",
			err:  errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			want: true,
		},
		{
			name: "postgres spelling",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "memberships_user_org" (SQLSTATE 23505)`),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tenancy.IsUniqueViolation(tt.err))
		})
	}
}

func TestSentinelCategories(t *testing.T) {
	assert.True(t, goerrors.IsNotFound(tenancy.ErrOrganisationNotFound))
	assert.True(t, goerrors.IsNotFound(tenancy.ErrUserNotFound))
	assert.Equal(t, goerrors.CategoryAuthz, tenancy.ErrMembershipRequired.Category)
	assert.Equal(t, goerrors.CategoryAuth, tenancy.ErrMismatchedHashAndPassword.Category)
}
