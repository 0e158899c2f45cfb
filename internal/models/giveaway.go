package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type EnterStatus string

const (
	ENTER_ACCEPTED        EnterStatus = "accepted"
	ENTER_ALREADY_ENTERED EnterStatus = "already_entered"
	ENTER_EXPIRED         EnterStatus = "expired"
	ENTER_FULL            EnterStatus = "full"
	ENTER_INACTIVE        EnterStatus = "inactive"
)

// Giveaway snapshots the prize fields at creation time so listing and
// announcements never need a join against prize_item.
type Giveaway struct {
	bun.BaseModel `bun:"table:giveaway"`
	ID            string          `bun:"id,pk" json:"id"`
	Title         string          `bun:"title" json:"title"`
	Description   string          `bun:"description" json:"description"`
	ChannelID     int64           `bun:"channel_id" json:"channel_id"`
	MessageID     int             `bun:"message_id" json:"message_id"`
	HostID        int64           `bun:"host_id" json:"host_id"`
	PrizeItemID   string          `bun:"prize_item_id" json:"prize_item_id"`
	PrizeName     string          `bun:"prize_name" json:"prize_name"`
	PrizeType     string          `bun:"prize_type" json:"prize_type"`
	PrizeValue    json.RawMessage `bun:"prize_value,type:jsonb" json:"prize_value"`
	StartTime     time.Time       `bun:"start_time" json:"start_time"`
	EndTime       time.Time       `bun:"end_time" json:"end_time"`
	MaxEntries    int             `bun:"max_entries" json:"max_entries"`
	Entries       []int64         `bun:"entries,array" json:"entries"`
	WinnerID      *int64          `bun:"winner_id" json:"winner_id,omitempty"`
	Active        bool            `bun:"active" json:"active"`
	Completed     bool            `bun:"completed" json:"completed"`
	CreatedAt     time.Time       `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at" json:"updated_at"`
}

func (giveaway *Giveaway) Entered(accountID int64) bool {
	for _, id := range giveaway.Entries {
		if id == accountID {
			return true
		}
	}
	return false
}

func (giveaway *Giveaway) Full() bool {
	return giveaway.MaxEntries > 0 && len(giveaway.Entries) >= giveaway.MaxEntries
}

func (giveaway *Giveaway) Clone() *Giveaway {
	clone := *giveaway
	clone.Entries = append([]int64(nil), giveaway.Entries...)
	if giveaway.WinnerID != nil {
		winner := *giveaway.WinnerID
		clone.WinnerID = &winner
	}
	return &clone
}

// WinnerAnnouncement is the record shown by the bot after a draw.
type WinnerAnnouncement struct {
	GiveawayID  string    `json:"giveaway_id"`
	Title       string    `json:"title"`
	WinnerID    int64     `json:"winner_id"`
	PrizeName   string    `json:"prize_name"`
	AnnouncedAt time.Time `json:"announced_at"`
}
