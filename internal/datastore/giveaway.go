package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableGiveaway(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Giveaway)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Giveaway)(nil)).Index("index_giveaway_active").IfNotExists().Column("active").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Giveaway)(nil)).Index("index_giveaway_end_time").IfNotExists().Column("end_time").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetGiveaway(ctx context.Context, db *bun.DB, id string) (*models.Giveaway, error) {
	var giveaway models.Giveaway
	err := db.NewSelect().Model(&giveaway).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &giveaway, nil
}

func UpsertGiveaway(ctx context.Context, db *bun.DB, giveaway *models.Giveaway) error {
	_, err := db.NewInsert().Model(giveaway).On("CONFLICT (id) DO UPDATE").
		Set("entries = EXCLUDED.entries").
		Set("winner_id = EXCLUDED.winner_id").
		Set("active = EXCLUDED.active").
		Set("completed = EXCLUDED.completed").
		Set("message_id = EXCLUDED.message_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func ListActiveGiveaways(ctx context.Context, db *bun.DB) ([]*models.Giveaway, error) {
	var giveaways []*models.Giveaway
	err := db.NewSelect().Model(&giveaways).
		Where("active = TRUE").
		OrderExpr("end_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return giveaways, nil
}
