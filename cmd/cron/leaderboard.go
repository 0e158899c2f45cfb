package main

import (
	"context"
	"log"

	"coindrop/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

const DEFAULT_LEADERBOARD_CRON = "0 0 * * 1"

// LeaderboardJob clears the weekly earner board, by default every
// Monday at midnight UTC.
type LeaderboardJob struct {
	container *do.Injector
}

func NewLeaderboardJob(container *do.Injector) *LeaderboardJob {
	return &LeaderboardJob{container}
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) error {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](j.container)
	if err != nil {
		return err
	}

	timeline, err := serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_LEADERBOARD, DEFAULT_LEADERBOARD_CRON)
	if err != nil {
		log.Println("leaderboard cron config:", err)
	}

	_, err = cronRunner.AddFunc(timeline, j.run)
	if err != nil {
		return err
	}

	log.Println("Leaderboard cronjob scheduled:", timeline)
	return nil
}

func (j *LeaderboardJob) run() {
	ctx := context.Background()

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	log.Println("Start cleaning weekly leaderboard ...")
	if err := serviceLeaderboard.ClearWeeklyLeaderboard(ctx); err != nil {
		log.Println(err)
		return
	}
	log.Println("Weekly leaderboard cleaned")
}
