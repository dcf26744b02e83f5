// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/wordserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormPlayerStats{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := models.GormGameRecord{
		RoomID:           record.RoomID,
		Word:             record.Word,
		WordMaster:       record.WordMaster,
		Winner:           record.Winner,
		Players:          record.Players,
		Scores:           record.Scores,
		TotalGuesses:     record.TotalGuesses,
		IncorrectGuesses: record.IncorrectGuesses,
		DurationMS:       record.Duration.Milliseconds(),
	}
	return p.db.Create(&row).Error
}

// IncrementPlayerStats 更新玩家统计（原子操作）
func (p *GormPostgreSQL) IncrementPlayerStats(userID string, won bool) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var stats models.GormPlayerStats
		err := tx.Where("user_id = ?", userID).First(&stats).Error
		if err == gorm.ErrRecordNotFound {
			stats = models.GormPlayerStats{UserID: userID}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"games_played": gorm.Expr("games_played + 1"),
		}
		if won {
			updates["games_won"] = gorm.Expr("games_won + 1")
		}

		return tx.Model(&models.GormPlayerStats{}).
			Where("user_id = ?", userID).
			Updates(updates).Error
	})
}

// GetPlayerStats 获取玩家统计
func (p *GormPostgreSQL) GetPlayerStats(userID string) (*models.PlayerStats, error) {
	var stats models.GormPlayerStats
	if err := p.db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &models.PlayerStats{
		UserID:      stats.UserID,
		GamesPlayed: stats.GamesPlayed,
		GamesWon:    stats.GamesWon,
		UpdatedAt:   stats.UpdatedAt,
	}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
