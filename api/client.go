/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package api wraps the three calls the game backend exposes: create a game,
// fetch its state, and submit a guess.
//
// The client is a stateless pass-through. It does not retry, cache, log or
// validate; every failure is returned to the caller as a *RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is where the backend listens in a local development setup.
const DefaultBaseURL = "http://localhost:8000"

// Config holds everything a Client needs. It is read once by NewClient.
type Config struct {
	// BaseURL is the scheme, host and optional path prefix of the backend.
	BaseURL *url.URL

	// HTTPClient performs the requests. http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

// Client issues requests against a single backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Response is what the backend sent back, untouched.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body as JSON into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

type createGameRequest struct {
	Cards []string `json:"cards"`
}

type guessRequest struct {
	GameID    string `json:"game_id"`
	GuessWord string `json:"guess_word"`
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == nil {
		return nil, errors.New("api: base url is required")
	}
	if cfg.BaseURL.Scheme != "http" && cfg.BaseURL.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported base url scheme %q", cfg.BaseURL.Scheme)
	}
	if cfg.BaseURL.Host == "" {
		return nil, errors.New("api: base url has no host")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	base := *cfg.BaseURL
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawPath = ""

	return &Client{
		baseURL: &base,
		http:    client,
	}, nil
}

// BaseURL returns a copy of the backend URL the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// CreateGame issues POST /game with the cards exactly as given.
func (c *Client) CreateGame(ctx context.Context, cards []string) (*Response, error) {
	if cards == nil {
		cards = []string{}
	}

	return c.do(ctx, "create game", http.MethodPost, c.endpoint("game"), createGameRequest{Cards: cards})
}

// GetGameState issues GET /game/{gameID}.
func (c *Client) GetGameState(ctx context.Context, gameID string) (*Response, error) {
	return c.do(ctx, "get game state", http.MethodGet, c.endpoint("game", gameID), nil)
}

// MakeGuess issues POST /guess.
func (c *Client) MakeGuess(ctx context.Context, gameID, guessWord string) (*Response, error) {
	return c.do(ctx, "make guess", http.MethodPost, c.endpoint("guess"), guessRequest{
		GameID:    gameID,
		GuessWord: guessWord,
	})
}

func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.baseURL
	u.RawQuery = ""
	u.Fragment = ""

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u.Path = c.baseURL.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.Join(escaped, "/")

	return &u
}

func (c *Client) do(ctx context.Context, op, method string, target *url.URL, payload any) (*Response, error) {
	fail := func(statusCode int, body []byte, err error) error {
		return &RequestError{
			Op:         op,
			Method:     method,
			URL:        target.String(),
			StatusCode: statusCode,
			Body:       body,
			Err:        err,
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fail(0, nil, fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, data, fmt.Errorf("unexpected status %s", resp.Status))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
