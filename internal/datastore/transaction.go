package datastore

import (
	"context"

	"coindrop/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTransaction(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Transaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_account_id").IfNotExists().Column("account_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_created_at").IfNotExists().Column("created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertTransaction(ctx context.Context, db *bun.DB, tx *models.Transaction) error {
	_, err := db.NewInsert().Model(tx).Exec(ctx)
	return err
}

func GetRecentTransactions(ctx context.Context, db *bun.DB, accountID int64, limit int) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := db.NewSelect().Model(&transactions).
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// TrimTransactions drops everything but the newest keep rows for the account.
func TrimTransactions(ctx context.Context, db *bun.DB, accountID int64, keep int) error {
	keepIDs := db.NewSelect().Model((*models.Transaction)(nil)).
		Column("id").
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC").
		Limit(keep)

	_, err := db.NewDelete().Model((*models.Transaction)(nil)).
		Where("account_id = ?", accountID).
		Where("id NOT IN (?)", keepIDs).
		Exec(ctx)
	return err
}
