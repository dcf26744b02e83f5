// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/wordserver/game"
	"github.com/wfunc/wordserver/models"
)

// Player is one room-scoped roster entry. ConnectionID is empty while the
// player has no live connection; disconnection does not remove the entry.
type Player struct {
	ID           string
	Username     string
	IsHost       bool
	ConnectionID string
}

// PlayerInfo is the read-only roster projection used in broadcasts.
type PlayerInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

// Room holds an ordered roster and at most one game session. Every mutation
// on a room happens under its own mutex, so unrelated rooms never contend.
type Room struct {
	ID          string
	Players     []*Player
	HostID      string
	MaxPlayers  int
	CurrentGame *game.Session
	CreatedAt   time.Time
	mutex       sync.RWMutex
}

func newRoom(id, hostID, hostUsername string, maxPlayers int) *Room {
	return &Room{
		ID:         id,
		HostID:     hostID,
		MaxPlayers: maxPlayers,
		Players:    []*Player{{ID: hostID, Username: hostUsername, IsHost: true}},
		CreatedAt:  time.Now(),
	}
}

// roster returns the ordered participant snapshot. Caller must hold the lock.
func (r *Room) roster() []game.Participant {
	roster := make([]game.Participant, 0, len(r.Players))
	for _, p := range r.Players {
		roster = append(roster, game.Participant{ID: p.ID, Username: p.Username})
	}
	return roster
}

func (r *Room) playerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		infos = append(infos, PlayerInfo{
			ID:        p.ID,
			Username:  p.Username,
			IsHost:    p.IsHost,
			Connected: p.ConnectionID != "",
		})
	}
	return infos
}

func (r *Room) usernameOf(userID string) string {
	for _, p := range r.Players {
		if p.ID == userID {
			return p.Username
		}
	}
	return ""
}

// GetHostID returns the current host's user id.
func (r *Room) GetHostID() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.HostID
}

// Players returns the roster projection.
func (r *Room) GetPlayers() []PlayerInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.playerInfos()
}

// CanStart reports whether a new session may begin: enough players and no
// round still running. Checked again under the write lock in StartGame once
// the word has been fetched.
func (r *Room) CanStart() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.canStartLocked()
}

func (r *Room) canStartLocked() error {
	if len(r.Players) < 2 {
		return game.ErrInsufficientPlayers
	}
	if r.CurrentGame != nil && r.CurrentGame.Status == game.StatusInProgress {
		return game.ErrGameInProgress
	}
	return nil
}

// StartResult carries everything the caller needs to deliver game:started:
// the masked view for guessers, the revealed view for the word master, and
// the first guesser's name.
type StartResult struct {
	Masked            game.Projection
	Revealed          game.Projection
	WordMasterID      string
	WordMasterName    string
	CurrentPlayerName string
}

// StartGame installs a fresh session over the previous one. Scores carry
// forward; everything else is replaced.
func (r *Room) StartGame(word string, maxIncorrect int) (*StartResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.canStartLocked(); err != nil {
		return nil, err
	}

	roster := r.roster()
	sess := game.NewSession(word, roster, r.CurrentGame, maxIncorrect)
	r.CurrentGame = sess

	return &StartResult{
		Masked:            game.Project(sess, false),
		Revealed:          game.Project(sess, true),
		WordMasterID:      sess.WordMaster,
		WordMasterName:    r.usernameOf(sess.WordMaster),
		CurrentPlayerName: r.usernameOf(sess.CurrentTurnPlayer),
	}, nil
}

// GuessOutcome is the fully resolved result of one guess, shaped under the
// room lock so broadcasts cannot observe a half-applied turn.
type GuessOutcome struct {
	Letter            string
	IsCorrect         bool
	Ended             bool
	Reason            string
	WinnerID          string
	WinnerName        string
	Word              string
	State             game.Projection
	CurrentPlayerName string
	Record            *models.GameRecord
}

// Guess applies one letter guess and, when it finishes the game, settles it
// in the same critical section: scoring, terminal status and the durable
// record snapshot.
func (r *Room) Guess(userID, letter string) (*GuessOutcome, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sess := r.CurrentGame
	if sess == nil || sess.Status != game.StatusInProgress {
		return nil, game.ErrNoActiveGame
	}

	result, err := sess.Guess(r.roster(), userID, letter)
	if err != nil {
		return nil, err
	}

	outcome := &GuessOutcome{
		Letter:    result.Letter,
		IsCorrect: result.IsCorrect,
		Ended:     result.Ended,
		Reason:    result.Reason,
	}

	if !result.Ended {
		outcome.State = game.Project(sess, false)
		outcome.CurrentPlayerName = r.usernameOf(sess.CurrentTurnPlayer)
		return outcome, nil
	}

	winnerID := ""
	if result.Reason == game.ReasonGuessed {
		winnerID = userID
	}
	sess.End(winnerID)

	outcome.WinnerID = winnerID
	outcome.WinnerName = r.usernameOf(winnerID)
	outcome.Word = sess.Word
	outcome.State = game.Project(sess, true)
	outcome.Record = r.gameRecordLocked(sess)
	return outcome, nil
}

// GameState serves the masked or revealed projection depending on the
// caller's role, read-only.
func (r *Room) GameState(userID string) (game.Projection, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sess := r.CurrentGame
	if sess == nil {
		return game.Projection{}, game.ErrNoActiveGame
	}

	reveal := sess.WordMaster == userID || sess.Status == game.StatusFinished
	return game.Project(sess, reveal), nil
}

func (r *Room) gameRecordLocked(sess *game.Session) *models.GameRecord {
	playerIDs := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		playerIDs = append(playerIDs, p.ID)
	}

	scores := make(map[string]int, len(sess.Scores))
	for id, score := range sess.Scores {
		scores[id] = score
	}

	return &models.GameRecord{
		RoomID:           r.ID,
		Word:             sess.Word,
		WordMaster:       sess.WordMaster,
		Winner:           sess.Winner,
		Players:          playerIDs,
		Scores:           scores,
		TotalGuesses:     sess.TotalGuesses(),
		IncorrectGuesses: append([]string{}, sess.IncorrectGuesses...),
		Duration:         sess.Duration(),
	}
}
