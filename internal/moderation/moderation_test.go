package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/faxinabot/internal/moderation"
)

type fakeGroups struct {
	mu      sync.Mutex
	enabled map[int64]bool
	err     error
	writes  int
}

func newFakeGroups(enabled ...int64) *fakeGroups {
	g := &fakeGroups{enabled: make(map[int64]bool)}
	for _, id := range enabled {
		g.enabled[id] = true
	}
	return g
}

func (g *fakeGroups) IsGroupEnabled(_ context.Context, groupID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.enabled[groupID], nil
}

func (g *fakeGroups) EnableGroup(_ context.Context, groupID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.writes++
	g.enabled[groupID] = true
	return nil
}

func (g *fakeGroups) DisableGroup(_ context.Context, groupID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.writes++
	delete(g.enabled, groupID)
	return nil
}

var allRoles = []moderation.Role{
	moderation.RoleUnknown,
	moderation.RoleCreator,
	moderation.RoleAdministrator,
	moderation.RoleMember,
	moderation.RoleRestricted,
	moderation.RoleLeft,
	moderation.RoleKicked,
}

func TestPolicyDecide(t *testing.T) {
	t.Parallel()

	const enabledGroup, disabledGroup = int64(-1), int64(-2)
	policy := moderation.NewPolicy(newFakeGroups(enabledGroup))

	tests := []struct {
		name    string
		groupID int64
		role    moderation.Role
		isBot   bool
		want    moderation.Action
	}{
		{name: "member in enabled group", groupID: enabledGroup, role: moderation.RoleMember, want: moderation.ActionTrack},
		{name: "restricted in enabled group", groupID: enabledGroup, role: moderation.RoleRestricted, want: moderation.ActionTrack},
		{name: "member in disabled group", groupID: disabledGroup, role: moderation.RoleMember, want: moderation.ActionIgnore},
		{name: "admin in enabled group", groupID: enabledGroup, role: moderation.RoleAdministrator, want: moderation.ActionPin},
		{name: "creator in disabled group", groupID: disabledGroup, role: moderation.RoleCreator, want: moderation.ActionPin},
		{name: "bot member", groupID: enabledGroup, role: moderation.RoleMember, isBot: true, want: moderation.ActionIgnore},
		{name: "bot admin", groupID: enabledGroup, role: moderation.RoleAdministrator, isBot: true, want: moderation.ActionIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := policy.Decide(context.Background(), tt.groupID, tt.role, tt.isBot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyDecide_AdminAlwaysPins(t *testing.T) {
	t.Parallel()

	policy := moderation.NewPolicy(newFakeGroups(-1))
	for _, groupID := range []int64{-1, -2} {
		for _, role := range []moderation.Role{moderation.RoleAdministrator, moderation.RoleCreator} {
			got, err := policy.Decide(context.Background(), groupID, role, false)
			require.NoError(t, err)
			assert.Equal(t, moderation.ActionPin, got, "group %d role %s", groupID, role)
		}
	}
}

func TestPolicyDecide_BotAlwaysIgnored(t *testing.T) {
	t.Parallel()

	groups := newFakeGroups(-1)
	groups.err = errors.New("must not be consulted")
	policy := moderation.NewPolicy(groups)

	for _, role := range allRoles {
		got, err := policy.Decide(context.Background(), -1, role, true)
		require.NoError(t, err)
		assert.Equal(t, moderation.ActionIgnore, got, "role %s", role)
	}
}

func TestPolicyDecide_UnknownRoleFailsClosed(t *testing.T) {
	t.Parallel()

	groups := newFakeGroups(-1)
	groups.err = errors.New("must not be consulted")
	policy := moderation.NewPolicy(groups)

	got, err := policy.Decide(context.Background(), -1, moderation.RoleUnknown, false)
	require.NoError(t, err)
	assert.Equal(t, moderation.ActionIgnore, got)
}

func TestPolicyDecide_StoreErrorIgnores(t *testing.T) {
	t.Parallel()

	groups := newFakeGroups(-1)
	groups.err = errors.New("disk I/O error")
	policy := moderation.NewPolicy(groups)

	got, err := policy.Decide(context.Background(), -1, moderation.RoleMember, false)
	require.Error(t, err)
	assert.Equal(t, moderation.ActionIgnore, got)
}

func TestGateToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	groups := newFakeGroups()
	gate := moderation.NewGate(groups)

	res, err := gate.Toggle(ctx, -1, moderation.RoleAdministrator, true)
	require.NoError(t, err)
	assert.Equal(t, moderation.ToggleApplied, res)
	assert.True(t, groups.enabled[-1])

	res, err = gate.Toggle(ctx, -1, moderation.RoleCreator, true)
	require.NoError(t, err)
	assert.Equal(t, moderation.ToggleApplied, res, "enable when enabled still succeeds")

	res, err = gate.Toggle(ctx, -1, moderation.RoleCreator, false)
	require.NoError(t, err)
	assert.Equal(t, moderation.ToggleApplied, res)
	assert.False(t, groups.enabled[-1])

	res, err = gate.Toggle(ctx, -1, moderation.RoleAdministrator, false)
	require.NoError(t, err)
	assert.Equal(t, moderation.ToggleApplied, res, "disable when disabled still succeeds")
}

func TestGateToggle_NonAdminNeverChangesState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, role := range allRoles {
		if role.IsAdmin() {
			continue
		}
		for _, enable := range []bool{true, false} {
			groups := newFakeGroups(-3)
			gate := moderation.NewGate(groups)

			res, err := gate.Toggle(ctx, -3, role, enable)
			require.NoError(t, err)
			assert.Equal(t, moderation.ToggleDenied, res, "role %s", role)
			assert.True(t, groups.enabled[-3], "role %s must not disable", role)
			assert.Zero(t, groups.writes, "role %s must not write", role)
		}
	}
}

func TestGateToggle_StoreError(t *testing.T) {
	t.Parallel()

	groups := newFakeGroups()
	groups.err = errors.New("database is locked")
	gate := moderation.NewGate(groups)

	res, err := gate.Toggle(context.Background(), -1, moderation.RoleAdministrator, true)
	require.Error(t, err)
	assert.Equal(t, moderation.ToggleDenied, res)
}

func TestRoleIsAdmin(t *testing.T) {
	t.Parallel()

	for _, role := range allRoles {
		want := role == moderation.RoleAdministrator || role == moderation.RoleCreator
		assert.Equal(t, want, role.IsAdmin(), "role %s", role)
	}
	assert.Equal(t, "unknown", moderation.RoleUnknown.String())
}
