/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package api

// The backend owns these shapes. The client never decodes them itself;
// views pass them to Response.Decode.

type CardColor string

const (
	Red      CardColor = "red"
	Blue     CardColor = "blue"
	Neutral  CardColor = "neutral"
	Assassin CardColor = "assassin"
)

type Card struct {
	Word     string    `json:"word"`
	Color    CardColor `json:"color,omitempty"`
	Revealed bool      `json:"revealed"`
}

// CreateGameResult is the body of a successful POST /game.
type CreateGameResult struct {
	GameID      string `json:"game_id"`
	FirstPlayer string `json:"first_player"`
}

// GameState is the body of a successful GET /game/{id}.
type GameState struct {
	CurrentTurn       string  `json:"current_turn"`
	CurrentClue       *string `json:"current_clue"`
	CurrentClueNumber *int    `json:"current_clue_number"`
	Board             []Card  `json:"board"`
	RedCardsLeft      int     `json:"red_cards_left"`
	BlueCardsLeft     int     `json:"blue_cards_left"`
	Winner            *string `json:"winner"`
}

// GuessResult is the body of a successful POST /guess.
type GuessResult struct {
	Correct   bool      `json:"correct"`
	CardColor CardColor `json:"card_color"`
	Board     []Card    `json:"board"`
	GameOver  bool      `json:"game_over"`
	Winner    *string   `json:"winner"`
}
