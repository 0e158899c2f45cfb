package main

import (
	"context"
	"log"
	"time"

	"coindrop/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

const SWEEP_INTERVAL = "@every 1m"

// GiveawaySweepJob ends expired giveaways. It runs once immediately so
// giveaways that expired while the process was down are settled before
// the first interval fires.
type GiveawaySweepJob struct {
	container *do.Injector
}

func NewGiveawaySweepJob(container *do.Injector) *GiveawaySweepJob {
	return &GiveawaySweepJob{container}
}

func (j *GiveawaySweepJob) Start(cronRunner *cron.Cron) error {
	j.run()

	_, err := cronRunner.AddFunc(SWEEP_INTERVAL, j.run)
	if err != nil {
		return err
	}

	log.Println("Giveaway sweep scheduled:", SWEEP_INTERVAL)
	return nil
}

func (j *GiveawaySweepJob) run() {
	ctx := context.Background()

	rs, err := do.Invoke[*redsync.Redsync](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	// one sweeper across all instances
	mutex := rs.NewMutex(services.LockKeyGiveawaySweep(), redsync.WithExpiry(50*time.Second))
	if err := mutex.TryLock(); err != nil {
		return
	}
	//nolint:errcheck
	defer mutex.Unlock()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	if err := serviceGiveaway.Tick(ctx); err != nil {
		log.Println("giveaway sweep:", err)
	}
}
