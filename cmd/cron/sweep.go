package main

import (
	"context"
	"log"
	"time"

	"spotlight/internal/datastore"
	"spotlight/internal/datastore/redis_store"
	"spotlight/internal/models"
	"spotlight/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// SweepJob expires overdue boosts in bulk. Reads still lazy-expire on
// their own; the sweeper just keeps the table from accumulating stale
// active rows between reads.
type SweepJob struct {
	Redis redis.UniversalClient
	Db    *bun.DB
	Rs    *redsync.Redsync
}

func NewSweepJob(redis redis.UniversalClient, db *bun.DB, rs *redsync.Redsync) *SweepJob {
	return &SweepJob{
		Redis: redis,
		Db:    db,
		Rs:    rs,
	}
}

func (j *SweepJob) Start(cronRunner *cron.Cron) {
	schedule := "@every 1m"
	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, "CRONJOB_TIME_BOOST_SWEEP")
	if err == nil && timeline != nil && timeline.Value != "" {
		schedule = timeline.Value
	}

	_, err = cronRunner.AddFunc(schedule, j.runScheduledTask)
	log.Println("Sweep Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
}

func (j *SweepJob) runScheduledTask() {
	ctx := context.Background()

	// only one instance sweeps per tick
	mutex := j.Rs.NewMutex(services.LockKeyBoostSweep())
	if err := mutex.TryLock(); err != nil {
		log.Println("sweep: another instance holds the lock, skipping")
		return
	}
	//nolint:errcheck
	defer mutex.Unlock()

	now := time.Now()
	expired, err := datastore.ExpireOverdue(ctx, j.Db, now)
	if err != nil {
		log.Println("sweep: expiring overdue boosts failed", err)
		return
	}

	if expired > 0 {
		log.Println("sweep: expired", expired, "overdue boosts")
	}

	report := &models.SweepReport{
		Expired: expired,
		RanAt:   now,
	}
	if err := redis_store.SetLastSweepReport(ctx, j.Redis, report); err != nil {
		log.Println("sweep: persisting sweep report failed", err)
	}
}
