// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/wordserver/models"
)

// Database is the durable boundary: one game record per finished round,
// plus cumulative play/win counters per participant.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	IncrementPlayerStats(userID string, won bool) error
	GetPlayerStats(userID string) (*models.PlayerStats, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
