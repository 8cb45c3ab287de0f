// Package moderation decides what the bot does with each group message and
// who may switch cleanup on or off for a group.
package moderation

import "context"

// Role is a chat member status as reported by the platform.
type Role string

// Chat member roles. RoleUnknown is used whenever the lookup failed.
const (
	RoleUnknown       Role = ""
	RoleCreator       Role = "creator"
	RoleAdministrator Role = "administrator"
	RoleMember        Role = "member"
	RoleRestricted    Role = "restricted"
	RoleLeft          Role = "left"
	RoleKicked        Role = "kicked"
)

// IsAdmin reports whether the role may pin-by-authorship and toggle cleanup.
func (r Role) IsAdmin() bool {
	return r == RoleCreator || r == RoleAdministrator
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// EnablementChecker answers whether cleanup is on for a group.
type EnablementChecker interface {
	IsGroupEnabled(ctx context.Context, groupID int64) (bool, error)
}

// GroupRegistry switches cleanup on and off.
type GroupRegistry interface {
	EnableGroup(ctx context.Context, groupID int64) error
	DisableGroup(ctx context.Context, groupID int64) error
}
