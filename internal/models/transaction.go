package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TX_TYPE_QUEST_REWARD  = "quest_reward"
	TX_TYPE_SHOP_PURCHASE = "shop_purchase"
	TX_TYPE_ADMIN_GRANT   = "admin_grant"
	TX_TYPE_ADMIN_REMOVE  = "admin_remove"
	TX_TYPE_GIVEAWAY_WIN  = "giveaway_win"
)

type Transaction struct {
	bun.BaseModel `bun:"table:transaction"`
	ID            string    `bun:"id,pk" json:"id"`
	AccountID     int64     `bun:"account_id" json:"account_id"`
	Type          string    `bun:"type" json:"type"`
	Amount        int64     `bun:"amount" json:"amount"`
	BalanceBefore int64     `bun:"balance_before" json:"balance_before"`
	BalanceAfter  int64     `bun:"balance_after" json:"balance_after"`
	Description   string    `bun:"description" json:"description"`
	AdminID       *int64    `bun:"admin_id" json:"admin_id,omitempty"`
	Flagged       bool      `bun:"flagged" json:"flagged"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
