package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/avast/retry-go/v4"
	"github.com/jmoiron/sqlx"
)

const (
	writeAttempts     = 3
	writeInitialDelay = 100 * time.Millisecond
)

// Store defines the retention store operations.
// Every write is committed before the method returns.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CaptureMessage records a message for later deletion. Capturing a
	// (group, message) pair that is already stored is a no-op.
	CaptureMessage(ctx context.Context, groupID int64, messageID int, capturedAt time.Time) error

	// ListPendingMessages returns every tracked message in insertion order.
	ListPendingMessages(ctx context.Context) ([]TrackedMessage, error)

	// ListEligibleMessages returns tracked messages captured at or before cutoff, in insertion order.
	ListEligibleMessages(ctx context.Context, cutoff time.Time) ([]TrackedMessage, error)

	// CountPendingMessages returns the number of tracked messages in a group.
	CountPendingMessages(ctx context.Context, groupID int64) (int, error)

	// RemoveMessage forgets a tracked message. Removing an unknown pair is not an error.
	RemoveMessage(ctx context.Context, groupID int64, messageID int) error

	// EnableGroup turns cleanup on for a group. Idempotent.
	EnableGroup(ctx context.Context, groupID int64) error

	// DisableGroup turns cleanup off for a group. Idempotent; pending messages are kept.
	DisableGroup(ctx context.Context, groupID int64) error

	// IsGroupEnabled reports whether cleanup is on for a group.
	IsGroupEnabled(ctx context.Context, groupID int64) (bool, error)

	// ListEnabledGroups returns every group with cleanup on.
	ListEnabledGroups(ctx context.Context) ([]EnabledGroup, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db      *sqlx.DB
	logger  *slog.Logger
	loc     *time.Location
	builder sq.StatementBuilderType
}

// NewStore creates a new Store backed by sqlx. Timestamps read back from the
// database are converted to loc.
func NewStore(db *sqlx.DB, logger *slog.Logger, loc *time.Location) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if loc == nil {
		loc = time.UTC
	}
	return &sqlxStore{
		db:      db,
		logger:  logger.With("component", "store"),
		loc:     loc,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CaptureMessage inserts a tracked message, ignoring duplicates.
func (s *sqlxStore) CaptureMessage(ctx context.Context, groupID int64, messageID int, capturedAt time.Time) error {
	if groupID == 0 {
		return fmt.Errorf("group_id cannot be zero")
	}
	if messageID <= 0 {
		return fmt.Errorf("message_id must be positive, got %d", messageID)
	}
	if capturedAt.IsZero() {
		return fmt.Errorf("captured_at cannot be zero")
	}

	query := `INSERT OR IGNORE INTO messages (group_id, message_id, created_at) VALUES (?, ?, ?);`

	var affected int64
	err := s.write(ctx, "capture_message", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, groupID, messageID, formatTimestamp(capturedAt))
		if err != nil {
			return err
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error capturing message", "group_id", groupID, "message_id", messageID, "error", err)
		return fmt.Errorf("failed to capture message (group %d, message %d): %w", groupID, messageID, err)
	}

	if affected == 0 {
		s.logger.DebugContext(ctx, "Message already tracked", "group_id", groupID, "message_id", messageID)
	} else {
		s.logger.DebugContext(ctx, "Message captured", "group_id", groupID, "message_id", messageID)
	}
	return nil
}

// ListPendingMessages returns a snapshot of all tracked messages.
func (s *sqlxStore) ListPendingMessages(ctx context.Context) ([]TrackedMessage, error) {
	return s.selectMessages(ctx, s.builder.
		Select("id", "group_id", "message_id", "created_at").
		From("messages").
		OrderBy("id"))
}

// ListEligibleMessages returns tracked messages captured at or before cutoff.
func (s *sqlxStore) ListEligibleMessages(ctx context.Context, cutoff time.Time) ([]TrackedMessage, error) {
	return s.selectMessages(ctx, s.builder.
		Select("id", "group_id", "message_id", "created_at").
		From("messages").
		Where(sq.LtOrEq{"created_at": formatTimestamp(cutoff)}).
		OrderBy("id"))
}

func (s *sqlxStore) selectMessages(ctx context.Context, query sq.SelectBuilder) ([]TrackedMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "Context timeout or cancellation while listing messages", "error", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error listing tracked messages", "error", err)
		return nil, fmt.Errorf("failed to list tracked messages: %w", err)
	}

	messages := make([]TrackedMessage, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toTracked(s.loc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	s.logger.DebugContext(ctx, "Listed tracked messages", "count", len(messages))
	return messages, nil
}

// CountPendingMessages returns the number of tracked messages in a group.
func (s *sqlxStore) CountPendingMessages(ctx context.Context, groupID int64) (int, error) {
	sqlStr, args, err := s.builder.
		Select("COUNT(*)").
		From("messages").
		Where(sq.Eq{"group_id": groupID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, sqlStr, args...); err != nil {
		return 0, fmt.Errorf("failed to count messages for group %d: %w", groupID, err)
	}
	return count, nil
}

// RemoveMessage deletes a tracked message if present.
func (s *sqlxStore) RemoveMessage(ctx context.Context, groupID int64, messageID int) error {
	query := `DELETE FROM messages WHERE group_id = ? AND message_id = ?;`

	err := s.write(ctx, "remove_message", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, groupID, messageID)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing message", "group_id", groupID, "message_id", messageID, "error", err)
		return fmt.Errorf("failed to remove message (group %d, message %d): %w", groupID, messageID, err)
	}
	return nil
}

// EnableGroup adds a group to the enabled set.
func (s *sqlxStore) EnableGroup(ctx context.Context, groupID int64) error {
	if groupID == 0 {
		return fmt.Errorf("group_id cannot be zero")
	}

	query := `INSERT OR IGNORE INTO enabled_groups (group_id, enabled_at) VALUES (?, ?);`

	err := s.write(ctx, "enable_group", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, groupID, formatTimestamp(time.Now()))
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error enabling group", "group_id", groupID, "error", err)
		return fmt.Errorf("failed to enable group %d: %w", groupID, err)
	}

	s.logger.InfoContext(ctx, "Cleanup enabled", "group_id", groupID)
	return nil
}

// DisableGroup removes a group from the enabled set.
func (s *sqlxStore) DisableGroup(ctx context.Context, groupID int64) error {
	query := `DELETE FROM enabled_groups WHERE group_id = ?;`

	err := s.write(ctx, "disable_group", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, groupID)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error disabling group", "group_id", groupID, "error", err)
		return fmt.Errorf("failed to disable group %d: %w", groupID, err)
	}

	s.logger.InfoContext(ctx, "Cleanup disabled", "group_id", groupID)
	return nil
}

// IsGroupEnabled reports whether a group is in the enabled set.
func (s *sqlxStore) IsGroupEnabled(ctx context.Context, groupID int64) (bool, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM enabled_groups WHERE group_id = ?;`, groupID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking group", "group_id", groupID, "error", err)
		return false, fmt.Errorf("failed to check group %d: %w", groupID, err)
	}
	return true, nil
}

// ListEnabledGroups returns every enabled group ordered by id.
func (s *sqlxStore) ListEnabledGroups(ctx context.Context) ([]EnabledGroup, error) {
	var rows []struct {
		GroupID   int64  `db:"group_id"`
		EnabledAt string `db:"enabled_at"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT group_id, enabled_at FROM enabled_groups ORDER BY group_id;`); err != nil {
		return nil, fmt.Errorf("failed to list enabled groups: %w", err)
	}

	groups := make([]EnabledGroup, 0, len(rows))
	for _, row := range rows {
		enabledAt, err := parseTimestamp(row.EnabledAt, s.loc)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", row.GroupID, err)
		}
		groups = append(groups, EnabledGroup{GroupID: row.GroupID, EnabledAt: enabledAt})
	}
	return groups, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}

// write runs fn in its own transaction and retries the whole transaction
// with backoff. Context errors are never retried.
func (s *sqlxStore) write(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	return retry.Do(
		func() error {
			return s.inTx(ctx, fn)
		},
		retry.Context(ctx),
		retry.Attempts(writeAttempts),
		retry.Delay(writeInitialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WarnContext(ctx, "Retrying store write", "operation", op, "attempt", n+1, "error", err)
		}),
	)
}

func (s *sqlxStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil
	return nil
}
