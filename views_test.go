/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardJSON(winner string) string {
	cards := make([]string, 0, boardSize)
	for i := 0; i < boardSize; i++ {
		color := "neutral"
		switch {
		case i < 9:
			color = "red"
		case i < 17:
			color = "blue"
		case i == 17:
			color = "assassin"
		}
		cards = append(cards, fmt.Sprintf(`{"word":"WORD%02d","color":"%s","revealed":%t}`, i, color, i%5 == 0))
	}

	w := "null"
	if winner != "" {
		w = `"` + winner + `"`
	}

	return `{"current_turn":"red","current_clue":"ocean","current_clue_number":2,"board":[` +
		strings.Join(cards, ",") +
		`],"red_cards_left":7,"blue_cards_left":6,"winner":` + w + `}`
}

func TestCreateGameView(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, nil)

	// When: the root page is opened
	resp, body := app.get(t, "/")

	// Then: the form is shown with suggested words and no backend call
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parseDocument(t, body)

	action, ok := doc.Find("#create-game").Attr("action")
	require.True(t, ok)
	assert.Equal(t, "/", action)

	suggested := splitCards(doc.Find("#cards").Text())
	assert.Len(t, suggested, boardSize)
	assert.Empty(t, app.client.recorded())
}

func TestCreateGame(t *testing.T) {
	t.Run("CreateGame_Redirects", func(t *testing.T) {
		client := &fakeClient{createBody: `{"game_id":"abc123","first_player":"blue"}`}
		app := newTestApp(t, client, nil)

		// Given: words with a duplicate, separated by newlines and commas
		form := url.Values{"cards": {"moon, Dragon\r\n\nmoon\n  pirate  "}}

		// When: the form is submitted
		resp, _ := app.postForm(t, "/", form)

		// Then: the backend receives the cards in order, duplicates kept
		calls := client.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, "create", calls[0].Op)
		assert.Equal(t, []string{"moon", "Dragon", "moon", "pirate"}, calls[0].Cards)

		// Then: the browser is sent to the new board
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/game/abc123", resp.Header.Get("Location"))
	})

	t.Run("CreateGame_BackendRejects", func(t *testing.T) {
		client := &fakeClient{err: backendError(http.StatusBadRequest, "Game ID already exists")}
		app := newTestApp(t, client, nil)

		resp, body := app.postForm(t, "/", url.Values{"cards": {"a\nb"}})

		// Then: the form comes back with the backend's message and the input kept
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		doc := parseDocument(t, body)
		assert.Equal(t, "Game ID already exists", doc.Find("#error").Text())
		assert.Equal(t, "a\nb", doc.Find("#cards").Text())
	})

	t.Run("CreateGame_BackendUnreachable", func(t *testing.T) {
		client := &fakeClient{err: errors.New("connection refused")}
		app := newTestApp(t, client, nil)

		resp, body := app.postForm(t, "/", url.Values{"cards": {"a"}})

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		doc := parseDocument(t, body)
		assert.NotEmpty(t, doc.Find("#error").Text())
	})

	t.Run("CreateGame_NoGameID", func(t *testing.T) {
		client := &fakeClient{createBody: `{"first_player":"red"}`}
		app := newTestApp(t, client, nil)

		resp, _ := app.postForm(t, "/", url.Values{"cards": {"a"}})

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Location"))
	})

	t.Run("CreateGame_Prefix", func(t *testing.T) {
		client := &fakeClient{createBody: `{"game_id":"g 1"}`}
		app := newTestApp(t, client, func(c *Config) { c.prefix = "/cn" })

		resp, _ := app.postForm(t, "/cn/", url.Values{"cards": {"a"}})

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/cn/game/g%201", resp.Header.Get("Location"))
	})
}

func TestGameView(t *testing.T) {
	t.Run("GameView_RendersBoard", func(t *testing.T) {
		client := &fakeClient{stateBody: boardJSON("")}
		app := newTestApp(t, client, nil)

		// When: a board is opened
		resp, body := app.get(t, "/game/abc123")

		// Then: exactly one state fetch for that game
		require.Equal(t, http.StatusOK, resp.StatusCode)
		calls := client.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, clientCall{Op: "state", GameID: "abc123"}, calls[0])

		// Then: all cards are shown, revealed ones colored, hidden ones guessable
		doc := parseDocument(t, body)
		assert.Equal(t, boardSize, doc.Find("#board .card").Length())
		assert.Equal(t, 5, doc.Find("#board .card.revealed").Length())
		assert.Equal(t, 2, doc.Find("#board .card.revealed.red").Length())
		assert.Equal(t, 1, doc.Find("#board .card.revealed.neutral").Length())
		assert.Equal(t, boardSize-5, doc.Find("#board form.card").Length())

		action, ok := doc.Find("#board form.card").First().Attr("action")
		require.True(t, ok)
		assert.Equal(t, "/game/abc123/guess", action)

		assert.Contains(t, doc.Find("#turn").Text(), "red")
		assert.Contains(t, doc.Find("#clue").Text(), "ocean")
		assert.Contains(t, doc.Find("#clue").Text(), "(2)")
		assert.Equal(t, "7", doc.Find("#red-left").Text())
		assert.Equal(t, "6", doc.Find("#blue-left").Text())
		assert.Equal(t, 0, doc.Find("#winner").Length())

		ws, ok := doc.Find("#game").Attr("data-ws")
		require.True(t, ok)
		assert.Equal(t, "/game/abc123/ws", ws)
	})

	t.Run("GameView_Finished", func(t *testing.T) {
		client := &fakeClient{stateBody: boardJSON("blue")}
		app := newTestApp(t, client, nil)

		_, body := app.get(t, "/game/abc123")

		// Then: the winner is announced and no more guesses are offered
		doc := parseDocument(t, body)
		assert.Contains(t, doc.Find("#winner").Text(), "blue")
		assert.Equal(t, 0, doc.Find("#board form").Length())
		assert.Equal(t, 0, doc.Find("#turn").Length())
	})

	t.Run("GameView_LastGuess", func(t *testing.T) {
		client := &fakeClient{stateBody: boardJSON("")}
		app := newTestApp(t, client, nil)

		_, body := app.get(t, "/game/abc123?guess=WORD03&color=blue")

		doc := parseDocument(t, body)
		text := doc.Find("#last-guess").Text()
		assert.Contains(t, text, "WORD03")
		assert.Contains(t, text, "blue")
	})

	t.Run("GameView_EscapesWords", func(t *testing.T) {
		client := &fakeClient{stateBody: `{"current_turn":"red","board":[{"word":"<script>x</script>","revealed":false}]}`}
		app := newTestApp(t, client, nil)

		_, body := app.get(t, "/game/abc123")

		assert.NotContains(t, string(body), "<script>x</script>")
		doc := parseDocument(t, body)
		assert.Equal(t, "<script>x</script>", doc.Find("#board button").Text())
	})

	t.Run("GameView_EscapesGameIDInLinks", func(t *testing.T) {
		client := &fakeClient{stateBody: boardJSON(""), guessBody: `{"card_color":"red"}`}
		app := newTestApp(t, client, nil)

		// Given: a game ID with characters that end a URL path
		_, body := app.get(t, "/game/a%3Fb")

		// Then: every link keeps the ID inside the path
		doc := parseDocument(t, body)

		action, ok := doc.Find("#board form.card").First().Attr("action")
		require.True(t, ok)
		assert.Equal(t, "/game/a%3Fb/guess", action)

		share, ok := doc.Find("#share").Attr("href")
		require.True(t, ok)
		assert.Equal(t, "/game/a%3Fb/qr", share)

		ws, ok := doc.Find("#game").Attr("data-ws")
		require.True(t, ok)
		assert.Equal(t, "/game/a%3Fb/ws", ws)

		// When: the rendered guess form is submitted
		resp, _ := app.postForm(t, action, url.Values{"word": {"WORD01"}})

		// Then: the guess reaches the backend for the same game
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Contains(t, client.recorded(), clientCall{Op: "guess", GameID: "a?b", Word: "WORD01"})
	})

	t.Run("GameView_NotFound", func(t *testing.T) {
		client := &fakeClient{err: backendError(http.StatusNotFound, "Game not found")}
		app := newTestApp(t, client, nil)

		resp, body := app.get(t, "/game/missing")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		doc := parseDocument(t, body)
		assert.Equal(t, "Game not found", doc.Find("#message").Text())
	})

	t.Run("GameView_BackendDown", func(t *testing.T) {
		client := &fakeClient{err: backendError(0, "")}
		app := newTestApp(t, client, nil)

		resp, _ := app.get(t, "/game/abc123")

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("GameView_BadBody", func(t *testing.T) {
		client := &fakeClient{stateBody: `not json`}
		app := newTestApp(t, client, nil)

		resp, _ := app.get(t, "/game/abc123")

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestMakeGuess(t *testing.T) {
	t.Run("MakeGuess_Redirects", func(t *testing.T) {
		client := &fakeClient{guessBody: `{"correct":false,"card_color":"blue","board":[],"game_over":false,"winner":null}`}
		app := newTestApp(t, client, nil)

		// When: a card is clicked
		resp, _ := app.postForm(t, "/game/abc123/guess", url.Values{"word": {"DRAGON"}})

		// Then: exactly one guess reaches the backend
		calls := client.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, clientCall{Op: "guess", GameID: "abc123", Word: "DRAGON"}, calls[0])

		// Then: the browser returns to the board with the outcome
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/game/abc123?color=blue&guess=DRAGON", resp.Header.Get("Location"))
	})

	t.Run("MakeGuess_EmptyWord", func(t *testing.T) {
		client := &fakeClient{}
		app := newTestApp(t, client, nil)

		resp, body := app.postForm(t, "/game/abc123/guess", url.Values{"word": {"   "}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, client.recorded())

		doc := parseDocument(t, body)
		back, ok := doc.Find("#back").Attr("href")
		require.True(t, ok)
		assert.Equal(t, "/game/abc123", back)
	})

	t.Run("MakeGuess_Rejected", func(t *testing.T) {
		client := &fakeClient{err: backendError(http.StatusBadRequest, "Card already revealed")}
		app := newTestApp(t, client, nil)

		resp, body := app.postForm(t, "/game/abc123/guess", url.Values{"word": {"MOON"}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		doc := parseDocument(t, body)
		assert.Equal(t, "Card already revealed", doc.Find("#message").Text())
	})
}

func TestSplitCards(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a"}, splitCards("a,b\na"))
	assert.Equal(t, []string{"two words", "x"}, splitCards(" two words ,\r\n x ,,"))
	assert.Empty(t, splitCards(" \n , "))
}

func TestBackendStatus(t *testing.T) {
	status, _ := backendStatus(errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusBadGateway, status)

	status, message := backendStatus(backendError(http.StatusNotFound, ""))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Game not found.", message)

	status, message = backendStatus(backendError(http.StatusUnprocessableEntity, ""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, message)

	status, _ = backendStatus(backendError(http.StatusInternalServerError, "boom"))
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestRandomWords(t *testing.T) {
	words := randomWords(boardSize)

	require.Len(t, words, boardSize)

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		assert.False(t, seen[w], w)
		assert.NotEmpty(t, w)
		assert.False(t, strings.HasPrefix(w, "#"))
		seen[w] = true
	}

	assert.Len(t, randomWords(len(wordlist)+10), len(wordlist))
}
