package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edgard/faxinabot/internal/database"
	"github.com/edgard/faxinabot/internal/metrics"
	"github.com/edgard/faxinabot/internal/telegram"
)

// ErrSweepInProgress is returned when a sweep is requested while another one
// is still running.
var ErrSweepInProgress = errors.New("cleanup sweep already in progress")

// SweepStore is the part of the retention store the sweep needs.
type SweepStore interface {
	ListEligibleMessages(ctx context.Context, cutoff time.Time) ([]database.TrackedMessage, error)
	RemoveMessage(ctx context.Context, groupID int64, messageID int) error
}

// Messenger is the part of the platform client the sweep needs.
type Messenger interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) telegram.Outcome
	SendMessage(ctx context.Context, chatID int64, text string) telegram.Outcome
}

// SweeperConfig holds the sweep parameters.
type SweeperConfig struct {
	Window       time.Duration
	Announcement string
	Location     *time.Location
	// Now overrides the clock; time.Now when nil.
	Now func() time.Time
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned        int
	Deleted        int
	DeleteFailures int
	Announced      int
	Groups         []int64
}

// Sweeper deletes tracked messages older than the retention window and
// announces the cleanup once per affected group.
type Sweeper struct {
	mu sync.Mutex

	store   SweepStore
	client  Messenger
	cfg     SweeperConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSweeper creates a Sweeper.
func NewSweeper(store SweepStore, client Messenger, cfg SweeperConfig, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{
		store:   store,
		client:  client,
		cfg:     cfg,
		logger:  logger.With("component", "sweeper"),
		metrics: m,
	}
}

// Run performs one sweep. Every eligible message is deleted on the platform
// (best-effort) and removed from the store whatever the delete outcome. After
// all deletions each affected group gets exactly one announcement.
//
// Store failures do not stop the sweep; they are joined into the returned
// error. If ctx is cancelled mid-sweep the remaining rows are left for the
// next run, and groups already cleaned are still announced.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	if !s.mu.TryLock() {
		s.metrics.ObserveSweep("skipped", 0, 0, 0)
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	now := s.cfg.Now().In(s.cfg.Location)
	cutoff := now.Add(-s.cfg.Window)

	var res SweepResult
	rows, err := s.store.ListEligibleMessages(ctx, cutoff)
	if err != nil {
		s.metrics.ObserveSweep("failed", 0, 0, time.Since(start))
		return res, fmt.Errorf("failed to list tracked messages: %w", err)
	}
	res.Scanned = len(rows)

	var errs []error
	seen := make(map[int64]struct{})
	for _, msg := range rows {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("sweep interrupted: %w", err))
			break
		}
		if now.Sub(msg.CapturedAt) < s.cfg.Window {
			continue
		}

		if outcome := s.client.DeleteMessage(ctx, msg.GroupID, msg.MessageID); !outcome.OK() {
			res.DeleteFailures++
		}

		if err := s.store.RemoveMessage(ctx, msg.GroupID, msg.MessageID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to remove tracked message",
				"group_id", msg.GroupID, "message_id", msg.MessageID, "error", err)
			errs = append(errs, fmt.Errorf("remove message %d in group %d: %w", msg.MessageID, msg.GroupID, err))
			continue
		}
		res.Deleted++

		if _, ok := seen[msg.GroupID]; !ok {
			seen[msg.GroupID] = struct{}{}
			res.Groups = append(res.Groups, msg.GroupID)
		}
	}

	// Announcements go out even on shutdown; the client still bounds each call.
	announceCtx := context.WithoutCancel(ctx)
	for _, groupID := range res.Groups {
		if s.client.SendMessage(announceCtx, groupID, s.cfg.Announcement).OK() {
			res.Announced++
		}
	}

	err = errors.Join(errs...)
	result := "ok"
	if err != nil {
		result = "partial"
	}
	duration := time.Since(start)
	s.metrics.ObserveSweep(result, res.Deleted, len(res.Groups), duration)

	s.logger.InfoContext(ctx, "Cleanup sweep finished",
		"scanned", res.Scanned,
		"deleted", res.Deleted,
		"delete_failures", res.DeleteFailures,
		"groups", len(res.Groups),
		"announced", res.Announced,
		"duration", duration,
	)
	return res, err
}
