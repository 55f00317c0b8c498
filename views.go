/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Seednode/codenames/api"
	"github.com/julienschmidt/httprouter"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

const boardSize = 25

// gameClient is the part of api.Client the views need.
type gameClient interface {
	CreateGame(ctx context.Context, cards []string) (*api.Response, error)
	GetGameState(ctx context.Context, gameID string) (*api.Response, error)
	MakeGuess(ctx context.Context, gameID, guessWord string) (*api.Response, error)
}

type page struct {
	Prefix  string
	Title   string
	Version string
}

type createPage struct {
	page
	Cards string
	Error string
}

type lastGuess struct {
	Word  string
	Color string
}

type gamePage struct {
	page
	GameID    string
	GamePath  string
	State     api.GameState
	LastGuess *lastGuess
}

type testPage struct {
	page
	Backend      string
	PollInterval time.Duration
	Routes       []Route
}

type statusPage struct {
	page
	Status  string
	Message string
	Back    string
}

func newPageData(cfg *Config, title string) page {
	return page{
		Prefix:  cfg.prefix,
		Title:   title,
		Version: releaseVersion,
	}
}

// render executes name into a buffer first so a template failure never
// leaves a half-written page behind.
func render(cfg *Config, w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer

	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		_, _ = io.WriteString(w, newPage(cfg, "Server Error", "An error has occurred. Please try again."))

		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := buf.WriteTo(w)
	if err != nil {
		return err
	}

	logf(cfg, "SERVE: %s (%s, status %d)", name, humanReadableSize(written), status)

	return nil
}

func serveStatusPage(cfg *Config, w http.ResponseWriter, status int, message string) {
	serveStatusPageWithBack(cfg, w, status, message, "")
}

func serveStatusPageWithBack(cfg *Config, w http.ResponseWriter, status int, message, back string) {
	data := statusPage{
		page:    newPageData(cfg, http.StatusText(status)),
		Status:  http.StatusText(status),
		Message: message,
		Back:    back,
	}

	if err := render(cfg, w, status, "status.html", data); err != nil {
		logf(cfg, "ERROR: rendering status page: %v", err)
	}
}

// backendStatus picks the status a view answers with when the backend call failed.
func backendStatus(err error) (int, string) {
	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode == 0 {
		return http.StatusBadGateway, "The game server could not be reached. Please try again."
	}

	detail := reqErr.Detail()

	switch {
	case reqErr.StatusCode == http.StatusNotFound:
		if detail == "" {
			detail = "Game not found."
		}
		return http.StatusNotFound, detail
	case reqErr.StatusCode >= 400 && reqErr.StatusCode < 500:
		if detail == "" {
			detail = "The game server rejected the request."
		}
		return http.StatusBadRequest, detail
	default:
		return http.StatusBadGateway, "The game server returned an error. Please try again."
	}
}

// splitCards turns the create form's textarea into a card list, keeping
// order and duplicates.
func splitCards(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	cards := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			cards = append(cards, f)
		}
	}

	return cards
}

func gamePath(cfg *Config, gameID string) string {
	return cfg.prefix + "/game/" + url.PathEscape(gameID)
}

func serveCreateGame(cfg *Config, errs chan<- error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		data := createPage{
			page:  newPageData(cfg, "New game"),
			Cards: strings.Join(randomWords(boardSize), "\n"),
		}

		if err := render(cfg, w, http.StatusOK, "create.html", data); err != nil {
			errs <- err
		}
	}
}

func createGame(cfg *Config, client gameClient, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil {
			serveStatusPage(cfg, w, http.StatusBadRequest, "The form could not be read.")

			return
		}

		raw := r.PostFormValue("cards")
		cards := splitCards(raw)

		fail := func(status int, message string) {
			data := createPage{
				page:  newPageData(cfg, "New game"),
				Cards: raw,
				Error: message,
			}

			if err := render(cfg, w, status, "create.html", data); err != nil {
				errs <- err
			}
		}

		resp, err := client.CreateGame(context.WithoutCancel(r.Context()), cards)
		if err != nil {
			logf(cfg, "GAMES: Failed to create game with %d cards: %v", len(cards), err)

			fail(backendStatus(err))

			return
		}

		var result api.CreateGameResult
		if err := resp.Decode(&result); err != nil || result.GameID == "" {
			logf(cfg, "GAMES: Backend returned no game id: %s", resp.Body)

			fail(http.StatusBadGateway, "The game server did not return a game id.")

			return
		}

		logf(cfg, "GAMES: Created game %s with %d cards", result.GameID, len(cards))

		http.Redirect(w, r, gamePath(cfg, result.GameID), http.StatusSeeOther)
	}
}

func serveGame(cfg *Config, client gameClient, errs chan<- error) func(http.ResponseWriter, *http.Request, GameInput) {
	return func(w http.ResponseWriter, r *http.Request, in GameInput) {
		resp, err := client.GetGameState(r.Context(), in.GameID)
		if err != nil {
			logf(cfg, "GAMES: Failed to load game %s: %v", in.GameID, err)

			status, message := backendStatus(err)
			serveStatusPage(cfg, w, status, message)

			return
		}

		data := gamePage{
			page:     newPageData(cfg, "Game "+in.GameID),
			GameID:   in.GameID,
			GamePath: gamePath(cfg, in.GameID),
		}

		if err := resp.Decode(&data.State); err != nil {
			logf(cfg, "GAMES: Unreadable state for game %s: %v", in.GameID, err)

			serveStatusPage(cfg, w, http.StatusBadGateway, "The game server returned an unreadable game state.")

			return
		}

		if word := r.URL.Query().Get("guess"); word != "" {
			data.LastGuess = &lastGuess{
				Word:  word,
				Color: r.URL.Query().Get("color"),
			}
		}

		if err := render(cfg, w, http.StatusOK, "game.html", data); err != nil {
			errs <- err
		}
	}
}

func makeGuess(cfg *Config, client gameClient) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		in, err := parseGameInput(p)
		if err != nil {
			serveStatusPage(cfg, w, http.StatusBadRequest, err.Error())

			return
		}

		if err := r.ParseForm(); err != nil {
			serveStatusPage(cfg, w, http.StatusBadRequest, "The form could not be read.")

			return
		}

		back := gamePath(cfg, in.GameID)

		word := strings.TrimSpace(r.PostFormValue("word"))
		if word == "" {
			serveStatusPageWithBack(cfg, w, http.StatusBadRequest, "No word was guessed.", back)

			return
		}

		resp, err := client.MakeGuess(context.WithoutCancel(r.Context()), in.GameID, word)
		if err != nil {
			logf(cfg, "GAMES: Guess %q in game %s failed: %v", word, in.GameID, err)

			status, message := backendStatus(err)
			serveStatusPageWithBack(cfg, w, status, message, back)

			return
		}

		query := url.Values{"guess": {word}}

		var result api.GuessResult
		if err := resp.Decode(&result); err == nil {
			logf(cfg, "GAMES: Guess %q in game %s revealed %s", word, in.GameID, result.CardColor)

			if result.CardColor != "" {
				query.Set("color", string(result.CardColor))
			}
		}

		http.Redirect(w, r, back+"?"+query.Encode(), http.StatusSeeOther)
	}
}

func serveTest(cfg *Config, table func() []Route, errs chan<- error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		data := testPage{
			page:         newPageData(cfg, "Diagnostics"),
			Backend:      cfg.backendURL.String(),
			PollInterval: cfg.pollInterval,
			Routes:       table(),
		}

		if err := render(cfg, w, http.StatusOK, "test.html", data); err != nil {
			errs <- err
		}
	}
}

func serveNotFound(cfg *Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logf(cfg, "SERVE: No route for %s from %s", r.URL.Path, realIP(r))

		serveStatusPage(cfg, w, http.StatusNotFound, "There is nothing at this address.")
	})
}
