package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Account struct {
	bun.BaseModel `bun:"table:account"`
	ID            int64  `bun:"id,pk" json:"id"`
	Username      string `bun:"username" json:"username"`
	FirstName     string `bun:"first_name" json:"first_name"`
	IsPremium     bool   `bun:"is_premium" json:"-"`

	Balance     int64 `bun:"balance" json:"balance"`
	TotalEarned int64 `bun:"total_earned" json:"total_earned"`
	TotalSpent  int64 `bun:"total_spent" json:"total_spent"`

	QuestsCompleted      int     `bun:"quests_completed" json:"quests_completed"`
	QuestsCompletedToday int     `bun:"quests_completed_today" json:"quests_completed_today"`
	LastQuestCompletedOn *string `bun:"last_quest_completed_on" json:"-"`

	CreatedAt time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

func (account *Account) Clone() *Account {
	clone := *account
	return &clone
}

// AccountFromAuth only use in middleware
type AccountFromAuth struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	IsBot     bool   `json:"is_bot"`
	IsPremium bool   `json:"is_premium"`
	Username  string `json:"username"`
}
