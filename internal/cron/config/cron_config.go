package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Full mailbox sync pass, every 5 minutes
	CronScheduleMailboxSync string `env:"CRON_SCHEDULE_MAILBOX_SYNC" envDefault:"0 */5 * * * *"`
	// Disables the background sync loop entirely when false
	SyncEnabled bool `env:"SYNC_ENABLED" envDefault:"true"`
}
