package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fudahub/fudahub/internal/rbac"
)

func TestCheckerDefaultRoles(t *testing.T) {
	c := rbac.NewChecker(nil)

	assert.True(t, c.Has("player", "sessions:create"))
	assert.True(t, c.Has("player", "ranking:view"))
	assert.False(t, c.Has("player", "poems:import"))
	assert.False(t, c.Has("player", "sessions:sweep"))

	assert.True(t, c.Has("admin", "poems:import"))
	assert.True(t, c.Has("admin", "anything:at-all"))

	assert.False(t, c.Has("ghost-role", "ranking:view"))
}

func TestCheckerWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"coach": {"groups:*", "ranking:view"},
	})

	assert.True(t, c.Has("coach", "groups:create"))
	assert.True(t, c.Has("coach", "groups:join"))
	assert.True(t, c.Has("coach", "ranking:view"))
	assert.False(t, c.Has("coach", "sessions:create"))
}

func TestCheckerAny(t *testing.T) {
	c := rbac.NewChecker(nil)

	assert.True(t, c.Any("player", "poems:import", "sessions:view-own"))
	assert.False(t, c.Any("player", "poems:import", "sessions:sweep"))
}

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, rbac.RoleFromContext(ctx))
	assert.Empty(t, rbac.SubjectFromContext(ctx))

	ctx = rbac.WithRole(rbac.WithSubject(ctx, "user-1"), "player")
	assert.Equal(t, "player", rbac.RoleFromContext(ctx))
	assert.Equal(t, "user-1", rbac.SubjectFromContext(ctx))
}
