package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tilt2048/internal/spawn"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer      = 256
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a frame pushed to websocket clients. Seq numbers a game's
// events in the order they happened.
type Message struct {
	GameID string      `json:"game_id"`
	Seq    uint64      `json:"seq"`
	Event  string      `json:"event"`
	State  *GameState  `json:"state,omitempty"`
	Spawn  *spawn.Tile `json:"spawn,omitempty"`
	Gained int         `json:"gained,omitempty"`
}

// CommandFunc receives a command token read from a websocket client.
type CommandFunc func(gameID, token string)

// SnapshotFunc produces the first frame of a new client. It must call
// register exactly once while holding the lock that orders the game's
// events, so that no event is emitted between the snapshot and the
// registration. A non-nil error drops the connection.
type SnapshotFunc func(register func(first *Message)) error

// client is one websocket connection watching a game.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	since  uint64 // Broadcasts up to this Seq are already in the first frame
}

// Hub fans game events out to the websocket clients watching each game.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	games      map[string]map[*client]bool
	broadcast  chan *Message
	register   chan *client
	unregister chan *client
	closeGame  chan string
	done       chan struct{}

	onCommand CommandFunc
	logger    *log.Logger
}

// NewHub creates a hub. onCommand may be nil, in which case client input is
// read and discarded.
func NewHub(onCommand CommandFunc, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		games:      make(map[string]map[*client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		closeGame:  make(chan string),
		done:       make(chan struct{}),
		onCommand:  onCommand,
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until Stop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case id := <-h.closeGame:
			for c := range h.games[id] {
				h.unregisterClient(c)
			}
		case m := <-h.broadcast:
			h.broadcastMessage(m)
		case <-h.done:
			for _, clients := range h.games {
				for c := range clients {
					h.unregisterClient(c)
				}
			}
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Broadcast queues m for the clients of m.GameID. Messages are dropped when
// the queue is full or the hub has stopped; every message carries the full
// state, so a dropped frame is superseded by the next one.
func (h *Hub) Broadcast(m *Message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	default:
		h.logger.Debug("broadcast dropped", "game", m.GameID, "event", m.Event)
	}
}

// CloseGame disconnects every client watching id.
func (h *Hub) CloseGame(id string) {
	select {
	case h.closeGame <- id:
	case <-h.done:
	}
}

// ServeWS upgrades the request and attaches the connection to gameID. The
// frame produced by snapshot is sent first; broadcasts it already covers
// are skipped.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string, snapshot SnapshotFunc) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "game", gameID, "error", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
	}

	registered := false
	err = snapshot(func(first *Message) {
		if first != nil {
			c.since = first.Seq
			if data, err := json.Marshal(first); err == nil {
				c.send <- data
			}
		}
		select {
		case h.register <- c:
			registered = true
		case <-h.done:
		}
	})
	if !registered {
		if err != nil {
			h.logger.Debug("websocket not attached", "game", gameID, "error", err)
		}
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) registerClient(c *client) {
	if h.games[c.gameID] == nil {
		h.games[c.gameID] = make(map[*client]bool)
	}
	h.games[c.gameID][c] = true
	h.logger.Debug("client registered", "game", c.gameID, "clients", len(h.games[c.gameID]))
}

func (h *Hub) unregisterClient(c *client) {
	clients, ok := h.games[c.gameID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.games, c.gameID)
	}
	h.logger.Debug("client unregistered", "game", c.gameID, "clients", len(clients))
}

func (h *Hub) broadcastMessage(m *Message) {
	clients, ok := h.games[m.GameID]
	if !ok {
		return
	}

	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("marshal broadcast", "game", m.GameID, "error", err)
		return
	}

	for c := range clients {
		if m.Seq <= c.since {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.unregisterClient(c)
		}
	}
}

// readPump forwards text frames as command tokens until the connection
// closes.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read", "game", c.gameID, "error", err)
			}
			return
		}
		if c.hub.onCommand != nil {
			c.hub.onCommand(c.gameID, string(data))
		}
	}
}

// writePump sends queued frames and keepalive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
