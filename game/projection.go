// game/projection.go
package game

import "strings"

// Projection is the broadcast-shaped view of a session. The word is masked
// unless the recipient is the word master or the game has finished.
type Projection struct {
	GameID                    string         `json:"gameId"`
	Status                    Status         `json:"status"`
	HiddenWord                string         `json:"hiddenWord"`
	GuessedLetters            []string       `json:"guessedLetters"`
	IncorrectGuesses          []string       `json:"incorrectGuesses"`
	IncorrectGuessesRemaining int            `json:"incorrectGuessesRemaining"`
	CurrentTurn               string         `json:"currentTurn"`
	WordMaster                string         `json:"wordMaster"`
	Scores                    map[string]int `json:"scores"`
}

// Project builds a typed view of the session rather than mutating shared
// state for a one-off broadcast. Letter slices and the scores map are
// copied so the caller can hand the projection to an encoder unguarded.
func Project(s *Session, revealWord bool) Projection {
	hidden := s.Word
	if !revealWord {
		hidden = maskWord(s.Word, s.GuessedLetters)
	}

	scores := make(map[string]int, len(s.Scores))
	for id, score := range s.Scores {
		scores[id] = score
	}

	return Projection{
		GameID:                    s.GameID,
		Status:                    s.Status,
		HiddenWord:                hidden,
		GuessedLetters:            append([]string{}, s.GuessedLetters...),
		IncorrectGuesses:          append([]string{}, s.IncorrectGuesses...),
		IncorrectGuessesRemaining: s.MaxIncorrectGuesses - len(s.IncorrectGuesses),
		CurrentTurn:               s.CurrentTurnPlayer,
		WordMaster:                s.WordMaster,
		Scores:                    scores,
	}
}

// maskWord renders the word as space-delimited tokens, revealed letters in
// place and the rest as underscores.
func maskWord(word string, guessed []string) string {
	tokens := make([]string, 0, len(word))
	for _, r := range word {
		letter := string(r)
		if contains(guessed, letter) {
			tokens = append(tokens, letter)
		} else {
			tokens = append(tokens, "_")
		}
	}
	return strings.Join(tokens, " ")
}
