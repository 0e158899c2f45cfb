package redis_store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"coindrop/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyLastWinner() string {
	return "giveaway:last_winner"
}

func dbKeyWinnerNotified(giveawayID string, winnerID int64) string {
	return fmt.Sprintf("giveaway:%s:notified:%d", giveawayID, winnerID)
}

func dbKeyEarnerLeaderboard(name string) string {
	return fmt.Sprintf("leaderboard:%s", name)
}

func SetLastWinner(ctx context.Context, cmd redis.Cmdable, announcement *models.WinnerAnnouncement) error {
	b, err := msgpack.Marshal(announcement)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyLastWinner(), b, 0).Err()
}

func GetLastWinner(ctx context.Context, cmd redis.Cmdable) (*models.WinnerAnnouncement, error) {
	var v *models.WinnerAnnouncement
	b, err := cmd.Get(ctx, dbKeyLastWinner()).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

// SetWinnerNotified marks the DM as delivered so restarts never double-send.
func SetWinnerNotified(ctx context.Context, cmd redis.Cmdable, giveawayID string, winnerID int64) error {
	return cmd.Set(ctx, dbKeyWinnerNotified(giveawayID, winnerID), true, time.Hour*24*7).Err()
}

func GetWinnerNotified(ctx context.Context, cmd redis.Cmdable, giveawayID string, winnerID int64) (bool, error) {
	_, err := cmd.Get(ctx, dbKeyWinnerNotified(giveawayID, winnerID)).Bytes()
	if err != nil {
		return false, err
	}

	return true, nil
}

func IncrEarnerScore(ctx context.Context, cmd redis.Cmdable, name string, accountID int64, amount int64) error {
	return cmd.ZIncrBy(ctx, dbKeyEarnerLeaderboard(name), float64(amount), strconv.FormatInt(accountID, 10)).Err()
}

func GetEarnerLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, num int) ([]*models.LeaderboardItem, error) {
	items, err := cmd.ZRevRangeWithScores(ctx, dbKeyEarnerLeaderboard(name), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	var results []*models.LeaderboardItem
	for i, item := range items {
		id, _ := strconv.ParseInt(item.Member.(string), 10, 64)
		results = append(results, &models.LeaderboardItem{
			AccountID: id,
			Score:     item.Score,
			Rank:      i + 1,
		})
	}

	return results, nil
}

func ClearEarnerLeaderboard(ctx context.Context, cmd redis.Cmdable, name string) error {
	return cmd.Del(ctx, dbKeyEarnerLeaderboard(name)).Err()
}
