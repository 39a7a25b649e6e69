package domain

import (
	"fmt"
	"strings"
	"time"
)

// GameResult is the settled outcome of a prediction. The zero value is not valid;
// unsettled games carry GameResultPending.
type GameResult string

const (
	GameResultPending GameResult = "pending"
	GameResultWon     GameResult = "won"
	GameResultLost    GameResult = "lost"
)

// ParseGameResult maps user input onto a GameResult.
func ParseGameResult(s string) (GameResult, error) {
	switch GameResult(strings.ToLower(strings.TrimSpace(s))) {
	case GameResultPending, "":
		return GameResultPending, nil
	case GameResultWon, "win":
		return GameResultWon, nil
	case GameResultLost, "loss":
		return GameResultLost, nil
	}
	return "", fmt.Errorf("unknown game result %q", s)
}

// Settled reports whether the game has a final outcome.
func (r GameResult) Settled() bool {
	return r == GameResultWon || r == GameResultLost
}

// Game is an admin-curated prediction.
type Game struct {
	ID         string
	HomeTeam   string
	AwayTeam   string
	League     string
	Prediction string
	Odds       float64
	KickoffAt  time.Time
	IsVIP      bool
	Result     GameResult
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GameStats aggregates outcomes across the catalogue.
type GameStats struct {
	Total   int64
	VIP     int64
	Won     int64
	Lost    int64
	Pending int64
}

// WinRate is won/(won+lost), or 0 when nothing is settled.
func (s GameStats) WinRate() float64 {
	settled := s.Won + s.Lost
	if settled == 0 {
		return 0
	}
	return float64(s.Won) / float64(settled)
}
