package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableQuestSet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.QuestSet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.QuestSet)(nil)).Index("index_quest_set_assigned_date").IfNotExists().Column("assigned_date").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetQuestSet(ctx context.Context, db *bun.DB, accountID int64) (*models.QuestSet, error) {
	var set models.QuestSet
	err := db.NewSelect().Model(&set).Where("account_id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &set, nil
}

func UpsertQuestSet(ctx context.Context, db *bun.DB, set *models.QuestSet) error {
	_, err := db.NewInsert().Model(set).On("CONFLICT (account_id) DO UPDATE").
		Set("assigned_date = EXCLUDED.assigned_date").
		Set("quests = EXCLUDED.quests").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
