package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"unicode"

	"github.com/gorilla/websocket"

	"github.com/jmdejong/battilde/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// clientSendBuffer is the per-client outbound queue; slow readers drop
	// messages rather than stall the tick loop
	clientSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// SpriteSource resolves a registered player name to its body sprite. The
// sqlite registry implements it.
type SpriteSource interface {
	PlayerSprite(name string) (string, error)
}

// wsClient is one connected terminal client. A client only joins the world
// after a valid name message.
type wsClient struct {
	conn   *websocket.Conn
	ip     string
	send   chan []byte
	player game.PlayerID
	named  bool
}

// Hub manages all player connections and is the engine's outbound sink.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*wsClient
	byPlayer map[game.PlayerID]*wsClient

	engine  *game.Engine
	sprites SpriteSource

	register   chan *wsClient
	unregister chan *websocket.Conn

	limiter *ClientLimiter
}

// NewHub creates the connection hub. Call BindEngine and Run before serving
// connections; the hub doubles as the engine's outbound sink.
func NewHub(sprites SpriteSource) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*wsClient),
		byPlayer:   make(map[game.PlayerID]*wsClient),
		sprites:    sprites,
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		limiter:    NewClientLimiter(DefaultLimiterConfig),
	}
}

// Limiter exposes the shared per-IP limiter so the HTTP router can enforce
// the same budgets.
func (h *Hub) Limiter() *ClientLimiter {
	return h.limiter
}

// BindEngine wires the engine the hub enqueues actions into. Must be called
// before Run.
func (h *Hub) BindEngine(engine *game.Engine) {
	h.engine = engine
}

// Run processes connection registration. Start it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			client, ok := h.clients[conn]
			if ok {
				h.limiter.ReleaseConn(client.ip)
				delete(h.clients, conn)
				if client.named {
					delete(h.byPlayer, client.player)
				}
				conn.Close()
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok && client.named {
				h.engine.Enqueue(game.Action{Kind: game.ActionLeave, Player: client.player})
				h.BroadcastMessage(string(client.player) + " disconnected")
			}
			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendWorld delivers a world view to one player. Implements game.Sink.
func (h *Hub) SendWorld(id game.PlayerID, msg *game.WorldMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.sendTo(id, data)
}

// SendError delivers a typed error to one player. Implements game.Sink.
func (h *Hub) SendError(id game.PlayerID, errType, text string) {
	data, err := json.Marshal([3]string{"error", errType, text})
	if err != nil {
		return
	}
	h.sendTo(id, data)
}

func (h *Hub) sendTo(id game.PlayerID, data []byte) {
	h.mu.RLock()
	client, ok := h.byPlayer[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- data:
		IncrementWSMessages()
	default:
		// Client can't keep up; the message is dropped and not resent.
	}
}

// BroadcastMessage sends a chat-style message to every named client.
func (h *Hub) BroadcastMessage(text string) {
	log.Printf("💬 %s", text)
	data, err := json.Marshal([3]string{"message", text, ""})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.byPlayer {
		select {
		case client.send <- data:
		default:
		}
	}
}

// HandleWebSocket upgrades an HTTP request into a player connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.limiter.AcquireConn(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.limiter.ReleaseConn(ip)
		return
	}

	client := &wsClient{
		conn: conn,
		ip:   ip,
		send: make(chan []byte, clientSendBuffer),
	}
	h.register <- client

	go client.writePump()
	go h.readPump(client)
}

func (c *wsClient) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.unregister <- client.conn
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if errType, errText, ok := h.handleMessage(client, data); !ok {
			reply, merr := json.Marshal([3]string{"error", errType, errText})
			if merr == nil {
				select {
				case client.send <- reply:
				default:
				}
			}
		}
	}
}

// handleMessage dispatches one inbound protocol message. Returns an error
// type and text when the message was rejected.
func (h *Hub) handleMessage(client *wsClient, data []byte) (string, string, bool) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 2 {
		return "invalidmessage", "messages are [type, body] arrays", false
	}
	var msgType string
	if err := json.Unmarshal(parts[0], &msgType); err != nil {
		return "invalidmessage", "message type must be a string", false
	}

	switch msgType {
	case "name":
		var name string
		if err := json.Unmarshal(parts[1], &name); err != nil {
			return "invalidname", "name is not a string", false
		}
		return h.handleName(client, name)

	case "chat":
		if !client.named {
			return "invalidaction", "set a name before you send any other messages", false
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return "invalidmessage", "chat text is not a string", false
		}
		h.BroadcastMessage(string(client.player) + ": " + text)
		return "", "", true

	case "input":
		if !client.named {
			return "invalidaction", "set a name before you send any other messages", false
		}
		control, err := game.ParseControl(parts[1])
		if err != nil {
			return "invalidaction", err.Error(), false
		}
		h.engine.Enqueue(game.Action{Kind: game.ActionInput, Player: client.player, Control: control})
		return "", "", true

	default:
		return "invalidmessage", "unknown message type " + msgType, false
	}
}

func (h *Hub) handleName(client *wsClient, name string) (string, string, bool) {
	if client.named {
		return "invalidaction", "you can not change your name", false
	}
	if msg := validateName(name); msg != "" {
		return "invalidname", msg, false
	}

	id := game.PlayerID(name)
	h.mu.Lock()
	if _, taken := h.byPlayer[id]; taken {
		h.mu.Unlock()
		return "nametaken", "another connection to this player exists already", false
	}
	client.player = id
	client.named = true
	h.byPlayer[id] = client
	h.mu.Unlock()

	sprite := game.SpriteForName(name)
	if h.sprites != nil {
		if stored, err := h.sprites.PlayerSprite(name); err == nil && stored != "" {
			sprite = game.Sprite(stored)
		} else if err != nil {
			log.Printf("⚠️ Registry lookup failed for %s: %v", name, err)
		}
	}

	h.BroadcastMessage(name + " connected")
	h.engine.Enqueue(game.Action{Kind: game.ActionJoin, Player: id, Sprite: sprite})
	return "", "", true
}

// validateName enforces the registration rules: 1-99 bytes of letters,
// digits and underscores.
func validateName(name string) string {
	if len(name) == 0 {
		return "a name must have at least one character"
	}
	if len(name) > 99 {
		return "a name can not be longer than 99 bytes"
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "a name can only contain letters, numbers and underscores"
		}
	}
	return ""
}
