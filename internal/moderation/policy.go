package moderation

import (
	"context"
	"fmt"
)

// Action is the outcome of Policy.Decide.
type Action int

// Possible actions for an incoming message.
const (
	ActionIgnore Action = iota
	ActionPin
	ActionTrack
)

func (a Action) String() string {
	switch a {
	case ActionPin:
		return "pin"
	case ActionTrack:
		return "track"
	default:
		return "ignore"
	}
}

// Policy decides per message whether to pin it, track it for deletion, or
// leave it alone. It performs no side effects.
type Policy struct {
	groups EnablementChecker
}

// NewPolicy returns a Policy consulting groups for enablement.
func NewPolicy(groups EnablementChecker) *Policy {
	return &Policy{groups: groups}
}

// Decide applies the rules in priority order:
//  1. automated senders are ignored
//  2. administrators and creators get their message pinned
//  3. senders whose role could not be looked up are ignored
//  4. messages in groups without cleanup are ignored
//  5. everything else is tracked
//
// A store error in step 4 yields ActionIgnore together with the error.
func (p *Policy) Decide(ctx context.Context, groupID int64, role Role, isBot bool) (Action, error) {
	if isBot {
		return ActionIgnore, nil
	}
	if role.IsAdmin() {
		return ActionPin, nil
	}
	if role == RoleUnknown {
		return ActionIgnore, nil
	}

	enabled, err := p.groups.IsGroupEnabled(ctx, groupID)
	if err != nil {
		return ActionIgnore, fmt.Errorf("failed to check cleanup for group %d: %w", groupID, err)
	}
	if !enabled {
		return ActionIgnore, nil
	}
	return ActionTrack, nil
}
