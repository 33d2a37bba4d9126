package cron

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prismateams/mailroom/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	log := getLogger()

	// Act
	cm := NewCronManager(log, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
	assert.NotNil(t, cm.ctx)
}

func TestCronManager_StartRegistersJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_HEARTBEAT", "0 * * * * *")
	os.Setenv("SYNC_ENABLED", "false")
	defer os.Unsetenv("CRON_SCHEDULE_HEARTBEAT")
	defer os.Unsetenv("SYNC_ENABLED")

	// Arrange
	cm := NewCronManager(getLogger(), nil)

	// Act
	cm.Start()
	defer cm.Stop()

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.NotContains(t, cm.jobIDs, "mailbox_sync")
}

func TestCronManager_StopCancelsContext(t *testing.T) {
	// Arrange
	os.Setenv("SYNC_ENABLED", "false")
	defer os.Unsetenv("SYNC_ENABLED")
	cm := NewCronManager(getLogger(), nil)
	cm.Start()

	// Act
	cm.Stop()

	// Assert
	assert.Error(t, cm.ctx.Err())
}
