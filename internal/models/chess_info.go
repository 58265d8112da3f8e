package models

import "time"

// ChessInfo caches the ratings fetched for a user's linked Chess.com account.
// A row is always written as a whole; fields are never patched individually.
type ChessInfo struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"-"`
	Blitz     int       `gorm:"not null;default:0" json:"blitz"`
	Bullet    int       `gorm:"not null;default:0" json:"bullet"`
	Rapid     int       `gorm:"not null;default:0" json:"rapid"`
	Puzzle    int       `gorm:"not null;default:0" json:"puzzle"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Percentiles holds the share of stored ratings strictly below a player's live
// rating, per time control.
type Percentiles struct {
	Blitz  float64 `json:"blitzPercentile"`
	Bullet float64 `json:"bulletPercentile"`
	Rapid  float64 `json:"rapidPercentile"`
}

// LeaderboardEntry is one row of a per-mode top list.
type LeaderboardEntry struct {
	ChessUsername string `json:"chessUsername"`
	Name          string `json:"name"`
	Rating        int    `json:"rating"`
}

type HighestRatings struct {
	Blitz  int `json:"blitz"`
	Bullet int `json:"bullet"`
	Rapid  int `json:"rapid"`
}

type TopPlayers struct {
	Blitz  []LeaderboardEntry `json:"blitz"`
	Bullet []LeaderboardEntry `json:"bullet"`
	Rapid  []LeaderboardEntry `json:"rapid"`
}

// Dashboard is an aggregate snapshot over every stored ChessInfo row.
type Dashboard struct {
	TotalUsers   int64          `json:"totalUsers"`
	Highest      HighestRatings `json:"highest"`
	AverageRapid float64        `json:"averageRapid"`
	Top10        TopPlayers     `json:"top10"`
}
