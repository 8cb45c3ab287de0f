package handlers

import (
	"log/slog"
	"time"

	"github.com/edgard/faxinabot/internal/config"
	"github.com/edgard/faxinabot/internal/database"
	"github.com/edgard/faxinabot/internal/metrics"
	"github.com/edgard/faxinabot/internal/moderation"
	"github.com/edgard/faxinabot/internal/telegram"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Client  telegram.Client
	Policy  *moderation.Policy
	Gate    *moderation.Gate
	Metrics *metrics.Metrics
	// Location is the civil timezone capture timestamps are recorded in.
	Location *time.Location
	// Now is the clock used for capture timestamps; time.Now when nil.
	Now func() time.Time
}

func (d HandlerDeps) now() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	if d.Location == nil {
		return now()
	}
	return now().In(d.Location)
}
