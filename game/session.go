// game/session.go
package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

// End reasons.
const (
	ReasonGuessed = "guessed"
	ReasonFailed  = "failed"
)

// Participant is one roster entry as the engine sees it. Order matters:
// the slice index drives both word-master and turn rotation.
type Participant struct {
	ID       string
	Username string
}

// Session is one play-through of a word within a room. It is mutated only
// through Guess and End; the room's lock serializes access.
type Session struct {
	GameID              string
	Word                string
	WordMaster          string
	WordMasterIndex     int
	GuessedLetters      []string
	IncorrectGuesses    []string
	CurrentTurnPlayer   string
	CurrentTurnIndex    int
	MaxIncorrectGuesses int
	Status              Status
	Scores              map[string]int
	StartedAt           time.Time
	EndedAt             time.Time
	Winner              string
}

// NewSession starts a fresh round. Word-master duty rotates one index past
// the previous round's word master, recomputed against the current roster
// length; scores carry forward from the previous session.
func NewSession(word string, roster []Participant, previous *Session, maxIncorrect int) *Session {
	wordMasterIndex := 0
	if previous != nil {
		wordMasterIndex = (previous.WordMasterIndex + 1) % len(roster)
	}

	firstGuesserIndex := (wordMasterIndex + 1) % len(roster)

	scores := make(map[string]int)
	if previous != nil {
		for id, score := range previous.Scores {
			scores[id] = score
		}
	}
	for _, p := range roster {
		if _, ok := scores[p.ID]; !ok {
			scores[p.ID] = 0
		}
	}

	return &Session{
		GameID:              uuid.New().String(),
		Word:                strings.ToUpper(word),
		WordMaster:          roster[wordMasterIndex].ID,
		WordMasterIndex:     wordMasterIndex,
		GuessedLetters:      []string{},
		IncorrectGuesses:    []string{},
		CurrentTurnPlayer:   roster[firstGuesserIndex].ID,
		CurrentTurnIndex:    firstGuesserIndex,
		MaxIncorrectGuesses: maxIncorrect,
		Status:              StatusInProgress,
		Scores:              scores,
		StartedAt:           time.Now(),
	}
}

// GuessResult is what one resolved guess looks like before broadcast shaping.
type GuessResult struct {
	Letter    string
	IsCorrect bool
	// Ended is set when this guess finished the game, with the reason.
	Ended  bool
	Reason string
}

// Guess resolves one letter guess against the session. The roster must be
// the room's current ordered player list.
func (s *Session) Guess(roster []Participant, userID, letter string) (*GuessResult, error) {
	if s.Status != StatusInProgress {
		return nil, ErrNoActiveGame
	}
	if s.CurrentTurnPlayer != userID {
		return nil, ErrNotYourTurn
	}
	// Unreachable through normal turn rotation, checked anyway.
	if s.WordMaster == userID {
		return nil, ErrWordMasterCannotGuess
	}

	normalized := strings.ToUpper(strings.TrimSpace(letter))
	if len(normalized) != 1 || normalized[0] < 'A' || normalized[0] > 'Z' {
		return nil, ErrInvalidLetter
	}

	if contains(s.GuessedLetters, normalized) || contains(s.IncorrectGuesses, normalized) {
		return nil, ErrLetterAlreadyGuessed
	}

	isCorrect := strings.Contains(s.Word, normalized)
	if isCorrect {
		s.GuessedLetters = append(s.GuessedLetters, normalized)
	} else {
		s.IncorrectGuesses = append(s.IncorrectGuesses, normalized)
	}

	result := &GuessResult{Letter: normalized, IsCorrect: isCorrect}

	if s.wordGuessed() {
		result.Ended = true
		result.Reason = ReasonGuessed
		return result, nil
	}
	if len(s.IncorrectGuesses) >= s.MaxIncorrectGuesses {
		result.Ended = true
		result.Reason = ReasonFailed
		return result, nil
	}

	s.advanceTurn(roster)
	return result, nil
}

// advanceTurn steps to the next roster index, hopping over the word master.
// The extra single hop matches the original rotation exactly.
func (s *Session) advanceTurn(roster []Participant) {
	nextIndex := (s.CurrentTurnIndex + 1) % len(roster)
	if nextIndex == s.WordMasterIndex {
		nextIndex = (nextIndex + 1) % len(roster)
	}
	s.CurrentTurnIndex = nextIndex
	s.CurrentTurnPlayer = roster[nextIndex].ID
}

// End finishes the session. An empty winnerID means nobody won. The winner
// is awarded 10 points plus 2 per unspent incorrect guess.
func (s *Session) End(winnerID string) {
	s.Status = StatusFinished
	s.EndedAt = time.Now()
	s.Winner = winnerID

	if winnerID != "" {
		remaining := s.MaxIncorrectGuesses - len(s.IncorrectGuesses)
		s.Scores[winnerID] += 10 + remaining*2
	}
}

// TotalGuesses counts every letter tried, right or wrong.
func (s *Session) TotalGuesses() int {
	return len(s.GuessedLetters) + len(s.IncorrectGuesses)
}

func (s *Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

func (s *Session) wordGuessed() bool {
	for _, r := range s.Word {
		if !contains(s.GuessedLetters, string(r)) {
			return false
		}
	}
	return true
}

func contains(letters []string, letter string) bool {
	for _, l := range letters {
		if l == letter {
			return true
		}
	}
	return false
}
