// Package tasks implements the bot's scheduled work: the retention sweep
// and periodic database maintenance.
package tasks

import (
	"log/slog"

	"github.com/edgard/faxinabot/internal/config"
	"github.com/edgard/faxinabot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
	Sweeps *SweepRunner
}
