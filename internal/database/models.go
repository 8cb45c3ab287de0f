package database

import (
	"fmt"
	"time"
)

// timestampLayout is fixed-width so that TEXT comparisons in SQL order the
// same way as the instants they encode. Values are always stored in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// TrackedMessage identifies one captured group message awaiting deletion.
type TrackedMessage struct {
	GroupID    int64
	MessageID  int
	CapturedAt time.Time
}

// EnabledGroup is a group with tracking and cleanup turned on.
type EnabledGroup struct {
	GroupID   int64
	EnabledAt time.Time
}

// messageRow mirrors a row of the messages table.
type messageRow struct {
	ID        int64  `db:"id"`
	GroupID   int64  `db:"group_id"`
	MessageID int    `db:"message_id"`
	CreatedAt string `db:"created_at"`
}

func (r messageRow) toTracked(loc *time.Location) (TrackedMessage, error) {
	capturedAt, err := parseTimestamp(r.CreatedAt, loc)
	if err != nil {
		return TrackedMessage{}, fmt.Errorf("message %d in group %d: %w", r.MessageID, r.GroupID, err)
	}
	return TrackedMessage{
		GroupID:    r.GroupID,
		MessageID:  r.MessageID,
		CapturedAt: capturedAt,
	}, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t.In(loc), nil
}
