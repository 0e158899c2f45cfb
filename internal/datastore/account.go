package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Account)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Account)(nil)).Index("index_account_username").IfNotExists().Column("username").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetAccount(ctx context.Context, db *bun.DB, id int64) (*models.Account, error) {
	var account models.Account
	err := db.NewSelect().Model(&account).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func UpsertAccount(ctx context.Context, db *bun.DB, account *models.Account) error {
	_, err := db.NewInsert().Model(account).On("CONFLICT (id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("first_name = EXCLUDED.first_name").
		Set("is_premium = EXCLUDED.is_premium").
		Set("balance = EXCLUDED.balance").
		Set("total_earned = EXCLUDED.total_earned").
		Set("total_spent = EXCLUDED.total_spent").
		Set("quests_completed = EXCLUDED.quests_completed").
		Set("quests_completed_today = EXCLUDED.quests_completed_today").
		Set("last_quest_completed_on = EXCLUDED.last_quest_completed_on").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
