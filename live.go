/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Live boards
//
// Every browser showing /game/:gameId opens /game/:gameId/ws. All sockets for
// the same game share one boardHub, which polls the backend for that game and
// pushes the state to its clients whenever the body changes. The backend is
// never polled for a game nobody is watching: the hub is stopped and dropped
// when its last client detaches.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/codenames/api"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type stateFetcher interface {
	GetGameState(ctx context.Context, gameID string) (*api.Response, error)
}

// BoardMessage is the only frame type sent to browsers.
type BoardMessage struct {
	Type    string          `json:"type"`              // "state" or "error"
	State   json.RawMessage `json:"state,omitempty"`   // backend body, verbatim
	Message string          `json:"message,omitempty"` // error text
}

type boardClient struct {
	conn *websocket.Conn
	send chan BoardMessage
}

type boardHub struct {
	id string

	clients  map[*boardClient]bool
	register chan *boardClient
	unreg    chan *boardClient

	// guarded by boardManager.mu
	refs int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	last    *BoardMessage
	lastErr string
}

func newBoardHub(gameID string) *boardHub {
	return &boardHub{
		id:       gameID,
		clients:  make(map[*boardClient]bool),
		register: make(chan *boardClient),
		unreg:    make(chan *boardClient),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (h *boardHub) halt() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *boardHub) run(cfg *Config, fetcher stateFetcher, interval time.Duration) {
	defer close(h.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-h.stop
		cancel()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.poll(ctx, cfg, fetcher)

	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			if h.last != nil {
				h.deliver(c, *h.last)
			}
		case c := <-h.unreg:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case <-ticker.C:
			h.poll(ctx, cfg, fetcher)
		case <-h.stop:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}

			return
		}
	}
}

func (h *boardHub) poll(ctx context.Context, cfg *Config, fetcher stateFetcher) {
	resp, err := fetcher.GetGameState(ctx, h.id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		status, message := backendStatus(err)
		if message == h.lastErr {
			return
		}
		h.lastErr = message

		logf(cfg, "GAMES: Live board for %s failed (status %d): %v", h.id, status, err)

		msg := BoardMessage{Type: "error", Message: message}
		h.last = &msg
		h.broadcast(msg)

		return
	}
	h.lastErr = ""

	if h.last != nil && h.last.Type == "state" && bytes.Equal(h.last.State, resp.Body) {
		return
	}

	if !json.Valid(resp.Body) {
		logf(cfg, "GAMES: Live board for %s got a non-JSON body", h.id)

		return
	}

	msg := BoardMessage{Type: "state", State: json.RawMessage(resp.Body)}
	h.last = &msg
	h.broadcast(msg)
}

func (h *boardHub) broadcast(msg BoardMessage) {
	for c := range h.clients {
		h.deliver(c, msg)
	}
}

// deliver drops clients too slow to keep up rather than stalling the hub.
func (h *boardHub) deliver(c *boardClient, msg BoardMessage) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// boardManager holds one hub per watched game.
type boardManager struct {
	cfg      *Config
	fetcher  stateFetcher
	interval time.Duration

	mu   sync.Mutex
	hubs map[string]*boardHub
}

func newBoardManager(cfg *Config, fetcher stateFetcher) *boardManager {
	return &boardManager{
		cfg:      cfg,
		fetcher:  fetcher,
		interval: cfg.pollInterval,
		hubs:     make(map[string]*boardHub),
	}
}

// attach returns the hub for gameID, starting one if needed. Every attach
// must be paired with a detach.
func (bm *boardManager) attach(gameID string) *boardHub {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	hub, ok := bm.hubs[gameID]
	if !ok {
		hub = newBoardHub(gameID)
		bm.hubs[gameID] = hub

		go hub.run(bm.cfg, bm.fetcher, bm.interval)

		logf(bm.cfg, "GAMES: Watching game %s", gameID)
	}
	hub.refs++

	return hub
}

func (bm *boardManager) detach(hub *boardHub) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	hub.refs--
	if hub.refs > 0 {
		return
	}

	if bm.hubs[hub.id] == hub {
		delete(bm.hubs, hub.id)
	}
	hub.halt()

	logf(bm.cfg, "GAMES: Stopped watching game %s", hub.id)
}

func (bm *boardManager) watching() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	return len(bm.hubs)
}

// closeAll stops every hub and waits for them to exit.
func (bm *boardManager) closeAll() {
	bm.mu.Lock()
	hubs := make([]*boardHub, 0, len(bm.hubs))
	for id, hub := range bm.hubs {
		delete(bm.hubs, id)
		hub.halt()
		hubs = append(hubs, hub)
	}
	bm.mu.Unlock()

	for _, hub := range hubs {
		<-hub.done
	}
}

func serveLiveBoard(cfg *Config, bm *boardManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		in, err := parseGameInput(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade for %s: %v", in.GameID, err)

			return
		}

		client := &boardClient{
			conn: conn,
			send: make(chan BoardMessage, 8),
		}

		hub := bm.attach(in.GameID)
		defer bm.detach(hub)

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()

			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

// readPump discards anything the browser sends; it only exists to notice
// the socket closing.
func (c *boardClient) readPump(h *boardHub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *boardClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
