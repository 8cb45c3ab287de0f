package moderation

import (
	"context"
	"fmt"
)

// ToggleResult reports whether a toggle request was carried out.
type ToggleResult int

// Toggle results.
const (
	ToggleDenied ToggleResult = iota
	ToggleApplied
)

func (t ToggleResult) String() string {
	if t == ToggleApplied {
		return "applied"
	}
	return "denied"
}

// Gate lets only group administrators switch cleanup on or off.
type Gate struct {
	groups GroupRegistry
}

// NewGate returns a Gate writing through groups.
func NewGate(groups GroupRegistry) *Gate {
	return &Gate{groups: groups}
}

// Toggle enables or disables cleanup for groupID on behalf of a member with
// the given role. Non-admin roles, RoleUnknown included, are denied without
// touching the registry. Repeated toggles in the same direction are applied again.
func (g *Gate) Toggle(ctx context.Context, groupID int64, role Role, enable bool) (ToggleResult, error) {
	if !role.IsAdmin() {
		return ToggleDenied, nil
	}

	if enable {
		if err := g.groups.EnableGroup(ctx, groupID); err != nil {
			return ToggleDenied, fmt.Errorf("failed to enable cleanup: %w", err)
		}
		return ToggleApplied, nil
	}

	if err := g.groups.DisableGroup(ctx, groupID); err != nil {
		return ToggleDenied, fmt.Errorf("failed to disable cleanup: %w", err)
	}
	return ToggleApplied, nil
}
