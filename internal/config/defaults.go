package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath = "storage.db"

	DefaultRequestTimeout = 10 * time.Second
	DefaultPollTimeout    = 30 * time.Second

	DefaultRetentionWindow = 24 * time.Hour
	DefaultSweepTime       = "00:00"
	DefaultTimezone        = "Asia/Dhaka"

	// Sundays at 04:30, away from the midnight sweep.
	DefaultSQLMaintenanceSchedule = "30 4 * * 0"
)

// Default user-visible texts.
const (
	DefaultAnnouncement = "🧹 গত ২৪ ঘণ্টার পুরনো বার্তাগুলো মুছে ফেলা হয়েছে। সবাইকে ধন্যবাদ!\n" +
		"🧹 Messages older than 24 hours have been cleaned up. Thank you, everyone!"

	DefaultCleanupEnabledMsg  = "✅ Auto cleanup ENABLED for this group."
	DefaultCleanupDisabledMsg = "❌ Auto cleanup DISABLED for this group."

	DefaultWelcomeMsg = "👋 Add @botname to a group as an administrator, then use /enable_cleanup there."
	DefaultHelpMsg    = "🧹 Commands (group administrators only):\n" +
		"/enable_cleanup - delete member messages once a day\n" +
		"/disable_cleanup - stop tracking new messages\n\n" +
		"Messages from administrators are pinned automatically."
)
