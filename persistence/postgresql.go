// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/wordserver/models"
)

// PostgreSQL is the raw database/sql implementation of Database, for
// deployments that do not want the ORM layer.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            word VARCHAR(64) NOT NULL,
            word_master VARCHAR(255) NOT NULL,
            winner VARCHAR(255),
            players JSONB NOT NULL,
            scores JSONB NOT NULL,
            total_guesses INT NOT NULL DEFAULT 0,
            incorrect_guesses JSONB,
            duration_ms BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS player_stats (
            id SERIAL PRIMARY KEY,
            user_id VARCHAR(255) UNIQUE NOT NULL,
            games_played INT NOT NULL DEFAULT 0,
            games_won INT NOT NULL DEFAULT 0,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
        CREATE INDEX IF NOT EXISTS idx_player_stats_user_id ON player_stats(user_id);
    `)

	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(record.Scores)
	if err != nil {
		return err
	}
	incorrectJSON, err := json.Marshal(record.IncorrectGuesses)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records
            (room_id, word, word_master, winner, players, scores, total_guesses, incorrect_guesses, duration_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID,
		record.Word,
		record.WordMaster,
		record.Winner,
		playersJSON,
		scoresJSON,
		record.TotalGuesses,
		incorrectJSON,
		record.Duration.Milliseconds())

	return err
}

// IncrementPlayerStats 更新玩家统计
func (p *PostgreSQL) IncrementPlayerStats(userID string, won bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wonDelta := 0
	if won {
		wonDelta = 1
	}

	query := `
        INSERT INTO player_stats (user_id, games_played, games_won)
        VALUES ($1, 1, $2)
        ON CONFLICT (user_id)
        DO UPDATE SET
            games_played = player_stats.games_played + 1,
            games_won = player_stats.games_won + $2,
            updated_at = CURRENT_TIMESTAMP
    `

	_, err := p.db.ExecContext(ctx, query, userID, wonDelta)
	return err
}

// GetPlayerStats 获取玩家统计
func (p *PostgreSQL) GetPlayerStats(userID string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := &models.PlayerStats{UserID: userID}
	query := `SELECT games_played, games_won, updated_at FROM player_stats WHERE user_id = $1`
	err := p.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.GamesPlayed, &stats.GamesWon, &stats.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
