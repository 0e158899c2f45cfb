package services

import (
	"context"

	"coindrop/internal/models"
)

// Keyed persistence consumed by the services. The datastore package
// provides the postgres-backed implementations; tests supply in-memory
// ones.

type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	UpsertAccount(ctx context.Context, account *models.Account) error
	InsertTransaction(ctx context.Context, tx *models.Transaction, keep int) error
	RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error)
}

type QuestSetStore interface {
	GetQuestSet(ctx context.Context, accountID int64) (*models.QuestSet, error)
	UpsertQuestSet(ctx context.Context, set *models.QuestSet) error
}

type PrizeStore interface {
	GetPrizeItem(ctx context.Context, id string) (*models.PrizeItem, error)
	UpsertPrizeItem(ctx context.Context, item *models.PrizeItem) error
	ListPrizeItemsByType(ctx context.Context, prizeType string) ([]*models.PrizeItem, error)
}

type GiveawayStore interface {
	GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error)
	UpsertGiveaway(ctx context.Context, giveaway *models.Giveaway) error
	ListActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error)
}
