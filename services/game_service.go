// services/game_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wfunc/wordserver/game"
	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/monitor"
	"github.com/wfunc/wordserver/network"
	"github.com/wfunc/wordserver/persistence"
	"github.com/wfunc/wordserver/room"
)

var (
	ErrOnlyHostCanStart = errors.New("only host can start the game")
)

// WordSource supplies the secret word. Defined here so tests can stub the
// external API away.
type WordSource interface {
	GetRandomWord(ctx context.Context) (string, error)
}

// Sender is the delivery surface the service needs: room fan-out, fan-out
// with one excluded recipient, and targeted delivery.
type Sender interface {
	BroadcastToRoom(roomID, event string, data []byte) error
	BroadcastToRoomExcept(roomID, exceptUserID, event string, data []byte) error
	SendToUser(userID, event string, data []byte) error
}

// GameService drives the game state machine: it owns the control flow from
// start request through guesses to the finished broadcast and the durable
// writes. All room-state mutation happens inside room's own locking; the
// service only sequences external calls around it.
type GameService struct {
	registry     *room.Registry
	words        WordSource
	db           persistence.Database
	sender       Sender
	monitor      *monitor.Monitor
	maxIncorrect int
}

func NewGameService(registry *room.Registry, words WordSource, db persistence.Database, sender Sender, mon *monitor.Monitor, maxIncorrect int) *GameService {
	return &GameService{
		registry:     registry,
		words:        words,
		db:           db,
		sender:       sender,
		monitor:      mon,
		maxIncorrect: maxIncorrect,
	}
}

type startedPayload struct {
	Message       string          `json:"message"`
	GameState     game.Projection `json:"gameState"`
	CurrentPlayer string          `json:"currentPlayer"`
}

// StartGame begins a round. The word fetch happens between two validation
// passes: a cheap pre-check before the slow external call, and the real
// one inside the room lock when the session is installed.
func (s *GameService) StartGame(ctx context.Context, roomID, userID string) error {
	r, exists := s.registry.GetRoom(roomID)
	if !exists {
		return room.ErrRoomNotFound
	}
	if r.GetHostID() != userID {
		return ErrOnlyHostCanStart
	}
	if err := r.CanStart(); err != nil {
		return err
	}

	word, err := s.words.GetRandomWord(ctx)
	if err != nil {
		return err
	}

	result, err := r.StartGame(word, s.maxIncorrect)
	if err != nil {
		return err
	}

	logger.Log.Infof("Game started in room %s, word master: %s", roomID, result.WordMasterName)
	if s.monitor != nil {
		s.monitor.IncGamesStarted()
	}

	masterData, _ := json.Marshal(startedPayload{
		Message:       "You are the word master!",
		GameState:     result.Revealed,
		CurrentPlayer: result.CurrentPlayerName,
	})
	s.sender.SendToUser(result.WordMasterID, network.EventGameStarted, masterData)

	othersData, _ := json.Marshal(startedPayload{
		Message:       "Game has started!",
		GameState:     result.Masked,
		CurrentPlayer: result.CurrentPlayerName,
	})
	s.sender.BroadcastToRoomExcept(roomID, result.WordMasterID, network.EventGameStarted, othersData)

	return nil
}

type guessResultPayload struct {
	Player        string          `json:"player"`
	Letter        string          `json:"letter"`
	IsCorrect     bool            `json:"isCorrect"`
	GameState     game.Projection `json:"gameState"`
	CurrentPlayer string          `json:"currentPlayer"`
}

type endedPayload struct {
	Reason    string          `json:"reason"`
	Winner    string          `json:"winner"`
	Word      string          `json:"word"`
	Scores    map[string]int  `json:"scores"`
	GameState game.Projection `json:"gameState"`
}

// MakeGuess resolves one guess and broadcasts the outcome. When the guess
// finishes the game, the in-memory session is already Finished before the
// persistence calls run; their failure is logged, never rolled back into
// the game outcome.
func (s *GameService) MakeGuess(roomID, userID, username, letter string) error {
	r, exists := s.registry.GetRoom(roomID)
	if !exists {
		return room.ErrRoomNotFound
	}

	outcome, err := r.Guess(userID, letter)
	if err != nil {
		return err
	}

	if s.monitor != nil {
		s.monitor.IncGuesses()
	}

	resultData, _ := json.Marshal(guessResultPayload{
		Player:        username,
		Letter:        outcome.Letter,
		IsCorrect:     outcome.IsCorrect,
		GameState:     outcome.State,
		CurrentPlayer: outcome.CurrentPlayerName,
	})
	s.sender.BroadcastToRoom(roomID, network.EventGameGuessResult, resultData)

	if !outcome.Ended {
		return nil
	}

	logger.Log.Infof("Game ended in room %s, reason: %s, winner: %s", roomID, outcome.Reason, orNone(outcome.WinnerName))
	if s.monitor != nil {
		s.monitor.IncGamesFinished()
	}

	s.persistOutcome(outcome)

	endedData, _ := json.Marshal(endedPayload{
		Reason:    outcome.Reason,
		Winner:    outcome.WinnerName,
		Word:      outcome.Word,
		Scores:    outcome.State.Scores,
		GameState: outcome.State,
	})
	s.sender.BroadcastToRoom(roomID, network.EventGameEnded, endedData)

	return nil
}

// GetState returns the caller's view of the current game, masked unless
// the caller is the word master or the game is over.
func (s *GameService) GetState(roomID, userID string) (game.Projection, error) {
	r, exists := s.registry.GetRoom(roomID)
	if !exists {
		return game.Projection{}, game.ErrNoActiveGame
	}
	return r.GameState(userID)
}

// persistOutcome writes the game record and bumps every participant's
// counters. Both degrade to a log line on failure: the broadcast has
// priority over durability here.
func (s *GameService) persistOutcome(outcome *room.GuessOutcome) {
	if s.db == nil || outcome.Record == nil {
		return
	}

	if err := s.db.SaveGameRecord(outcome.Record); err != nil {
		logger.Log.Errorf("Failed to save game record for room %s: %v", outcome.Record.RoomID, err)
	}

	for _, playerID := range outcome.Record.Players {
		won := playerID == outcome.WinnerID && outcome.WinnerID != ""
		if err := s.db.IncrementPlayerStats(playerID, won); err != nil {
			logger.Log.Errorf("Failed to update stats for player %s: %v", playerID, err)
		}
	}
}

func orNone(name string) string {
	if name == "" {
		return "none"
	}
	return name
}
