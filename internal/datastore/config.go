package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableConfig(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Config)(nil)).IfNotExists().Exec(ctx)
	return err
}

func GetConfigByKey(ctx context.Context, db *bun.DB, key string) (*models.Config, error) {
	config := new(models.Config)
	if err := db.NewSelect().Model(config).Where("key = ?", key).Scan(ctx); err != nil {
		return nil, err
	}

	return config, nil
}

// UpsertConfig seeds or overwrites a single key.
func UpsertConfig(ctx context.Context, db *bun.DB, config *models.Config) error {
	_, err := db.NewInsert().
		Model(config).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}
