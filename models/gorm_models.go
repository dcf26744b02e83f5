// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID           string         `gorm:"index;not null"`
	Word             string         `gorm:"not null"`
	WordMaster       string         `gorm:"not null"`
	Winner           string         `gorm:"index"`
	Players          []string       `gorm:"serializer:json;type:jsonb;not null"`
	Scores           map[string]int `gorm:"serializer:json;type:jsonb;not null"`
	TotalGuesses     int            `gorm:"default:0"`
	IncorrectGuesses []string       `gorm:"serializer:json;type:jsonb"`
	DurationMS       int64          `gorm:"default:0"`
}

// GormPlayerStats 玩家统计模型
type GormPlayerStats struct {
	gorm.Model
	UserID      string `gorm:"uniqueIndex;not null"`
	GamesPlayed int    `gorm:"default:0"`
	GamesWon    int    `gorm:"default:0"`
}
