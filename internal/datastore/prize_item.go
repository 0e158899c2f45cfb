package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePrizeItem(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PrizeItem)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PrizeItem)(nil)).Index("index_prize_item_type").IfNotExists().Column("type").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PrizeItem)(nil)).Index("index_prize_item_active").IfNotExists().Column("active").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetPrizeItem(ctx context.Context, db *bun.DB, id string) (*models.PrizeItem, error) {
	var item models.PrizeItem
	err := db.NewSelect().Model(&item).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func UpsertPrizeItem(ctx context.Context, db *bun.DB, item *models.PrizeItem) error {
	_, err := db.NewInsert().Model(item).On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("type = EXCLUDED.type").
		Set("rarity = EXCLUDED.rarity").
		Set("value = EXCLUDED.value").
		Set("active = EXCLUDED.active").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func ListPrizeItemsByType(ctx context.Context, db *bun.DB, prizeType string) ([]*models.PrizeItem, error) {
	var items []*models.PrizeItem
	err := db.NewSelect().Model(&items).
		Where("type = ?", prizeType).
		OrderExpr("added_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return items, nil
}
