package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

// Postgres-backed store adapters handed to the services layer. Keeping
// them here lets tests swap in fakes without touching the query funcs.

type AccountPG struct {
	db *bun.DB
}

func NewAccountPG(db *bun.DB) *AccountPG {
	return &AccountPG{db}
}

func (s *AccountPG) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return GetAccount(ctx, s.db, id)
}

func (s *AccountPG) UpsertAccount(ctx context.Context, account *models.Account) error {
	return UpsertAccount(ctx, s.db, account)
}

func (s *AccountPG) InsertTransaction(ctx context.Context, tx *models.Transaction, keep int) error {
	if err := InsertTransaction(ctx, s.db, tx); err != nil {
		return err
	}
	return TrimTransactions(ctx, s.db, tx.AccountID, keep)
}

func (s *AccountPG) RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	return GetRecentTransactions(ctx, s.db, accountID, limit)
}

type QuestSetPG struct {
	db *bun.DB
}

func NewQuestSetPG(db *bun.DB) *QuestSetPG {
	return &QuestSetPG{db}
}

func (s *QuestSetPG) GetQuestSet(ctx context.Context, accountID int64) (*models.QuestSet, error) {
	return GetQuestSet(ctx, s.db, accountID)
}

func (s *QuestSetPG) UpsertQuestSet(ctx context.Context, set *models.QuestSet) error {
	return UpsertQuestSet(ctx, s.db, set)
}

type PrizeItemPG struct {
	db *bun.DB
}

func NewPrizeItemPG(db *bun.DB) *PrizeItemPG {
	return &PrizeItemPG{db}
}

func (s *PrizeItemPG) GetPrizeItem(ctx context.Context, id string) (*models.PrizeItem, error) {
	return GetPrizeItem(ctx, s.db, id)
}

func (s *PrizeItemPG) UpsertPrizeItem(ctx context.Context, item *models.PrizeItem) error {
	return UpsertPrizeItem(ctx, s.db, item)
}

func (s *PrizeItemPG) ListPrizeItemsByType(ctx context.Context, prizeType string) ([]*models.PrizeItem, error) {
	return ListPrizeItemsByType(ctx, s.db, prizeType)
}

type GiveawayPG struct {
	db *bun.DB
}

func NewGiveawayPG(db *bun.DB) *GiveawayPG {
	return &GiveawayPG{db}
}

func (s *GiveawayPG) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	return GetGiveaway(ctx, s.db, id)
}

func (s *GiveawayPG) UpsertGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	return UpsertGiveaway(ctx, s.db, giveaway)
}

func (s *GiveawayPG) ListActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error) {
	return ListActiveGiveaways(ctx, s.db)
}
