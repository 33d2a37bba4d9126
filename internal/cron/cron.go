package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	cron_config "github.com/prismateams/mailroom/internal/cron/config"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
	syncpkg "github.com/prismateams/mailroom/services/sync"
)

const (
	// GroupSync serializes all mailbox sync jobs
	GroupSync = "sync"
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupSync: new(sync.Mutex),
	},
}

type CronManager struct {
	log         logger.Logger
	cron        *cronv3.Cron
	jobIDs      map[string]cronv3.EntryID
	syncService *syncpkg.Service
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewCronManager(log logger.Logger, syncService *syncpkg.Service) *CronManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronManager{
		log:         log,
		jobIDs:      make(map[string]cronv3.EntryID),
		syncService: syncService,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start initializes and starts the cron scheduler.
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop cancels any in-flight sync pass and waits for running jobs to finish.
func (cm *CronManager) Stop() {
	cm.cancel()
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.SyncEnabled && cronConfig.CronScheduleMailboxSync != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleMailboxSync, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSync].Lock()
			defer jobLocks.locks[GroupSync].Unlock()
			cm.runMailboxSync()
		})
		if err != nil {
			cm.log.Fatalf("Could not add mailbox sync cron job: %v", err)
		}
		cm.jobIDs["mailbox_sync"] = id
		cm.log.Infof("Registered mailbox sync job with schedule: %s", cronConfig.CronScheduleMailboxSync)
	}
}

func (cm *CronManager) runMailboxSync() {
	if cm.ctx.Err() != nil {
		return
	}

	span, ctx := tracing.StartTracerSpan(cm.ctx, "CronManager.runMailboxSync")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	stats, err := cm.syncService.SyncAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Mailbox sync pass failed: %v", err)
		return
	}

	cm.log.Infof("Mailbox sync pass finished: %s", stats.Summary())
}
