package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

const (
	PRIZE_TYPE_COINS = "coins"
	PRIZE_TYPE_ITEM  = "item"

	PRIZE_RARITY_COMMON    = "common"
	PRIZE_RARITY_RARE      = "rare"
	PRIZE_RARITY_EPIC      = "epic"
	PRIZE_RARITY_LEGENDARY = "legendary"
)

type PrizeItem struct {
	bun.BaseModel `bun:"table:prize_item"`
	ID            string          `bun:"id,pk" json:"id"`
	Name          string          `bun:"name" json:"name"`
	Type          string          `bun:"type" json:"type"`
	Rarity        string          `bun:"rarity" json:"rarity"`
	Value         json.RawMessage `bun:"value,type:jsonb" json:"value"`
	Active        bool            `bun:"active" json:"active"`
	AddedAt       time.Time       `bun:"added_at,default:current_timestamp" json:"added_at"`
	ExpiresAt     *time.Time      `bun:"expires_at" json:"expires_at,omitempty"`
}

func (item *PrizeItem) Expired(now time.Time) bool {
	return item.ExpiresAt != nil && now.After(*item.ExpiresAt)
}

func (item *PrizeItem) Clone() *PrizeItem {
	clone := *item
	return &clone
}

// CoinPrizeValue is the payload of a PRIZE_TYPE_COINS item.
type CoinPrizeValue struct {
	Amount int64 `json:"amount"`
}
