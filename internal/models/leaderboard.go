package models

type LeaderboardItem struct {
	AccountID int64   `json:"account_id"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}
