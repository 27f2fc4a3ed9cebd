// Quizboard Jeopardy Game
//
// A shared trivia board. Every browser looking at the same game ID sees the
// same board and the same reveals, so one screen can act as the projector
// while players click along on their phones.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Board set up on first connection, and again on every "new_game"
// - Clicks advance a clue from hidden to question to answer, then stop
// - Restarts supersede any setup still in flight; stale boards are dropped
// - Fetch failures are reported to every player and leave the board as it was
// - Button label cycles Start New Game, Loading..., Done!
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/quizboard/board"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	labelStart   = "Start New Game"
	labelLoading = "Loading..."
	labelDone    = "Done!"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "new_game", "reveal"
	Cell       string `json:"cell,omitempty"`       // reveal: "<category>-<clue>"
	Generation uint64 `json:"generation,omitempty"` // reveal: board the click was made on
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type   string `json:"type"` // "session_info"
	GameID string `json:"game_id"`
	Phase  string `json:"phase"` // "empty", "loading", "ready"
}

// BoardMessage carries the whole grid after every completed setup.
type BoardMessage struct {
	Type       string            `json:"type"` // "board"
	Generation uint64            `json:"generation"`
	Headers    []string          `json:"headers"`
	Rows       [][]board.CellView `json:"rows"`
}

// CellMessage carries a single cell whose reveal state just advanced.
type CellMessage struct {
	Type string         `json:"type"` // "cell"
	Cell board.CellView `json:"cell"`
}

// StatusMessage sets the label of the new game button.
type StatusMessage struct {
	Type    string `json:"type"` // "status"
	Label   string `json:"label"`
	Loading bool   `json:"loading"`
}

// SimpleMessage is for generic notifications ("fetch_error", "reveal_error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type revealRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	session *board.Session
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	restarts chan struct{}
	reveals  chan revealRequest

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	lastActive time.Time
	label      string
}

func newHub(ctx context.Context, gameID string, session *board.Session) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	now := time.Now()

	return &Hub{
		id:         gameID,
		session:    session,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		restarts:   make(chan struct{}),
		reveals:    make(chan revealRequest),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: now,
		label:      labelStart,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			phase := h.session.Phase()
			idle := phase == board.PhaseEmpty && h.label != labelLoading

			c.send <- SessionInfoMessage{
				Type:   "session_info",
				GameID: h.id,
				Phase:  phase.String(),
			}
			c.send <- StatusMessage{
				Type:    "status",
				Label:   h.label,
				Loading: h.label == labelLoading,
			}
			if phase == board.PhaseReady {
				c.send <- h.boardMessage()
			}
			h.mu.Unlock()

			// The first visitor to a fresh game gets a board without asking.
			if idle {
				h.startGame(cfg)
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case <-h.restarts:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()

			h.startGame(cfg)

		case rr := <-h.reveals:
			h.handleReveal(cfg, rr)
		}
	}
}

func (h *Hub) boardMessage() BoardMessage {
	grid := h.session.Grid()

	return BoardMessage{
		Type:       "board",
		Generation: h.session.BoardGeneration(),
		Headers:    grid.Headers,
		Rows:       grid.Rows,
	}
}

// broadcastLocked assumes h.mu is already held.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(msg)
}

func (h *Hub) setStatusLocked(label string) {
	h.label = label
	h.broadcastLocked(StatusMessage{
		Type:    "status",
		Label:   label,
		Loading: label == labelLoading,
	})
}

// setStatusIfCurrent changes the label only while gen is still the latest
// restart, so a superseded setup never clobbers the label of a newer one.
func (h *Hub) setStatusIfCurrent(gen uint64, label string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session.Generation() != gen {
		return false
	}

	h.setStatusLocked(label)

	return true
}

// wait blocks for d or until the hub is closed.
func (h *Hub) wait(d time.Duration) bool {
	if d <= 0 {
		return h.ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// startGame discards the current board and sets up a new one in the
// background. The button reads "Loading..." until the board is ready and at
// least cfg.loadingDelay has passed, then "Done!" for cfg.doneDelay.
func (h *Hub) startGame(cfg *Config) {
	h.mu.Lock()
	ctx, gen := h.session.Begin(h.ctx)
	h.setStatusLocked(labelLoading)
	h.mu.Unlock()

	go func() {
		started := time.Now()

		ctx, cancel := context.WithTimeout(ctx, cfg.fetchTimeout)
		b, err := h.session.Setup(ctx)
		cancel()

		// Reveals also take h.mu, so none can land between installing the
		// board and telling the players about it.
		h.mu.Lock()
		_, err = h.session.Commit(gen, b, err)
		switch {
		case errors.Is(err, board.ErrSuperseded):
			h.mu.Unlock()
			logf(cfg, "GAMES: Dropped superseded board %d in %s", gen, h.id)

			return
		case err != nil:
			h.broadcastLocked(SimpleMessage{
				Type:    "fetch_error",
				Message: "Unable to fetch trivia right now. Please try again.",
			})
			h.setStatusLocked(labelStart)
			h.mu.Unlock()
			logf(cfg, "FETCH: Board setup for %s failed: %v", h.id, err)

			return
		}
		h.broadcastLocked(h.boardMessage())
		h.mu.Unlock()

		logf(cfg, "GAMES: Board %d ready in %s after %s", gen, h.id, time.Since(started).Round(time.Millisecond))

		if !h.wait(cfg.loadingDelay - time.Since(started)) {
			return
		}
		if !h.setStatusIfCurrent(gen, labelDone) {
			return
		}

		if !h.wait(cfg.doneDelay) {
			return
		}
		h.setStatusIfCurrent(gen, labelStart)
	}()
}

func (h *Hub) handleReveal(cfg *Config, rr revealRequest) {
	c := rr.client

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	cell, err := board.ParseCell(rr.msg.Cell)
	if err != nil {
		h.replyLocked(c, SimpleMessage{Type: "reveal_error", Message: "That cell does not exist."})

		return
	}

	// A click on a board that has since been replaced must not land on the
	// same cell of the new one.
	if g := rr.msg.Generation; g != 0 && g != h.session.BoardGeneration() {
		h.replyLocked(c, SimpleMessage{Type: "reveal_error", Message: "That board has been replaced."})

		return
	}

	view, changed, err := h.session.Reveal(cell)
	switch {
	case errors.Is(err, board.ErrNoBoard):
		h.replyLocked(c, SimpleMessage{Type: "reveal_error", Message: "The board is still loading."})

		return
	case err != nil:
		h.replyLocked(c, SimpleMessage{Type: "reveal_error", Message: "That cell does not exist."})

		return
	case !changed:
		return
	}

	logf(cfg, "GAMES: Revealed %s (%s) in %s", cell, view.Class, h.id)

	h.broadcastLocked(CellMessage{
		Type: "cell",
		Cell: view,
	})
}

// replyLocked sends msg to one client; h.mu must be held.
func (h *Hub) replyLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.cancel()
	h.session.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated board.
type GameManager struct {
	ctx         context.Context
	src         board.Source
	dims        board.Dimensions
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, src board.Source, dims board.Dimensions, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		src:         src,
		dims:        dims,
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.ctx, gameID, board.NewSession(gm.src, gm.dims))
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const limit = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 8)
		buf := make([]byte, 16)

		for len(out) < 8 {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			for _, b := range buf {
				if b <= limit && len(out) < 8 {
					out = append(out, letters[int(b)%len(letters)])
				}
			}
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "GAMES: %s joined %s", realIP(r), gameID)

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "new_game":
			select {
			case h.restarts <- struct{}{}:
			case <-h.ctx.Done():
				return
			}
		case "reveal":
			select {
			case h.reveals <- revealRequest{client: c, msg: msg}:
			case <-h.ctx.Done():
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/jeopardy/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerJeopardyGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerJeopardyGame(ctx context.Context, cfg *Config, path string, src board.Source, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(ctx, src, cfg.dimensions(), cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm, errs))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
