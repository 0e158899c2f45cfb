package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	QUEST_DIFFICULTY_EASY    = "easy"
	QUEST_DIFFICULTY_HARD    = "hard"
	QUEST_DIFFICULTY_PREMIUM = "premium"

	QUEST_TYPE_CHECKIN        = "daily_checkin"
	QUEST_TYPE_MESSAGE        = "message_activity"
	QUEST_TYPE_GIVEAWAY_ENTRY = "giveaway_entry"
	QUEST_TYPE_SPEND          = "spend_coins"
)

type Quest struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Difficulty      string     `json:"difficulty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Emoji           string     `json:"emoji"`
	TargetValue     int        `json:"target_value"`
	CurrentProgress int        `json:"current_progress"`
	Completed       bool       `json:"completed"`
	Claimed         bool       `json:"claimed"`
	CoinReward      int64      `json:"coin_reward"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func (quest *Quest) Claimable() bool {
	return quest.Completed && !quest.Claimed
}

// QuestSet holds the quests assigned to one account for one UTC day.
// It is replaced wholesale when AssignedDate no longer matches today.
type QuestSet struct {
	bun.BaseModel `bun:"table:quest_set"`
	AccountID     int64     `bun:"account_id,pk" json:"account_id"`
	AssignedDate  string    `bun:"assigned_date" json:"assigned_date"`
	Quests        []*Quest  `bun:"quests,type:jsonb" json:"quests"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

func (set *QuestSet) Clone() *QuestSet {
	clone := *set
	clone.Quests = make([]*Quest, len(set.Quests))
	for i, quest := range set.Quests {
		q := *quest
		clone.Quests[i] = &q
	}
	return &clone
}
