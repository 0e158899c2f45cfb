package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrPrizeUnavailable = errors.New("prize item unavailable")
var ErrPrizeExpired = errors.New("prize item expired")
var ErrInvalidDuration = errors.New("giveaway duration out of range")
var ErrGiveawayCompleted = errors.New("giveaway already completed")
var ErrGiveawayNotCompleted = errors.New("giveaway not completed")
var ErrGiveawayNoEntries = errors.New("giveaway has no entries")
var ErrGiveawayNoWinner = errors.New("giveaway has no drawn winner")

const (
	CONFIG_SERVER_MODE              = "SERVER_MODE"
	CONFIG_EARNER_LEADERBOARD_LIMIT = "EARNER_LEADERBOARD_LIMIT"
	CONFIG_CRONJOB_TIME_LEADERBOARD = "CRONJOB_TIME_LEADERBOARD"
	CONFIG_TEXT_NEW_ACCOUNT         = "TEXT_NEW_ACCOUNT"
	CONFIG_GIVEAWAY_CHANNEL_ID      = "GIVEAWAY_CHANNEL_ID"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_STAGING     = "staging"
	SERVER_MODE_PRODUCTION  = "production"

	LEADERBOARD_EARNERS        = "earners"
	LEADERBOARD_EARNERS_WEEKLY = "earners_weekly"

	EARNER_LEADERBOARD_DEFAULT_LIMIT = 20

	CACHE_TTL_5_SECONDS = 5 * time.Second
	CACHE_TTL_1_MIN     = 1 * time.Minute
	CACHE_TTL_5_MINS    = 5 * time.Minute
	CACHE_TTL_1_HOUR    = 1 * time.Hour

	TRANSACTION_LOG_LIMIT     = 100
	TRANSACTION_FLAG_AMOUNT   = 10_000
	TRANSACTION_FLAG_COUNT    = 10
	TRANSACTION_FLAG_INTERVAL = 60 * time.Second

	QUEST_REWARD_MIN_EASY    = 50
	QUEST_REWARD_MAX_EASY    = 100
	QUEST_REWARD_MIN_HARD    = 150
	QUEST_REWARD_MAX_HARD    = 300
	QUEST_REWARD_MIN_PREMIUM = 400
	QUEST_REWARD_MAX_PREMIUM = 600

	GIVEAWAY_MIN_DURATION_HOURS = 1
	GIVEAWAY_MAX_DURATION_HOURS = 168
	GIVEAWAY_UNLIMITED_ENTRIES  = -1

	GIVEAWAY_ENTER_RATE_LIMIT_PER_MINUTE = 30

	LOCK_MUTEX_EXPIRY = 10 * time.Second
)

func LockKeyAccount(accountID int64) string {
	return fmt.Sprintf("lock:account:%d", accountID)
}

func LockKeyQuests(accountID int64) string {
	return fmt.Sprintf("lock:quests:%d", accountID)
}

func LockKeyGiveaway(giveawayID string) string {
	return fmt.Sprintf("lock:giveaway:%s", giveawayID)
}

func LockKeyPrizeItem(itemID string) string {
	return fmt.Sprintf("lock:prize-item:%s", itemID)
}

func LockKeyGiveawaySweep() string {
	return "lock:giveaway-sweep"
}

// db
func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyAccount(accountID int64) string {
	return fmt.Sprintf("account:%d", accountID)
}

func DBKeyPrizeItemsByType(prizeType string) string {
	return fmt.Sprintf("prize_items:%s", strings.ToLower(prizeType))
}

func DBKeyActiveGiveaways() string {
	return "giveaways:active"
}

func DBKeyLeaderboard(name string, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", strings.ToLower(name), limit)
}

func LimitKeyGiveawayEnter(accountID int64) string {
	return fmt.Sprintf("limit:giveaway-enter:%d", accountID)
}
