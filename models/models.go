// models/models.go
package models

import (
	"time"
)

// GameRecord is the durable snapshot of one finished round.
type GameRecord struct {
	RoomID           string         `json:"room_id"`
	Word             string         `json:"word"`
	WordMaster       string         `json:"word_master"`
	Winner           string         `json:"winner"`
	Players          []string       `json:"players"`
	Scores           map[string]int `json:"scores"`
	TotalGuesses     int            `json:"total_guesses"`
	IncorrectGuesses []string       `json:"incorrect_guesses"`
	Duration         time.Duration  `json:"duration"`
	CreatedAt        time.Time      `json:"created_at"`
}

// PlayerStats is the cumulative per-user play/win tally.
type PlayerStats struct {
	UserID      string    `json:"user_id"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomSummary is the lightweight room listing served over RPC.
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	PlayerCount int    `json:"player_count"`
	Host        string `json:"host"`
}
