package game

import "errors"

var (
	ErrNoActiveGame          = errors.New("no active game")
	ErrGameInProgress        = errors.New("game already in progress")
	ErrInsufficientPlayers   = errors.New("need at least 2 players to start game")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrWordMasterCannotGuess = errors.New("word master cannot guess")
	ErrInvalidLetter         = errors.New("invalid letter, must be a single A-Z character")
	ErrLetterAlreadyGuessed  = errors.New("letter already guessed")
)
