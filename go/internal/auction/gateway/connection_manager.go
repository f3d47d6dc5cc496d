package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager tracks WebSocket connections per auction and fans
// committed events (and ticks) out to them.
type ConnectionManager struct {
	auctionConnections map[uuid.UUID]map[*Connection]bool
	mu                 sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one WebSocket client subscribed to a single auction.
type Connection struct {
	ID        string
	UserID    string
	AuctionID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	sendMu sync.Mutex
	closed bool
}

// enqueue offers a frame to the connection's send buffer. It reports
// whether the frame was queued and whether the connection is still open;
// not-queued-but-open means the consumer is too slow to keep up.
func (c *Connection) enqueue(message []byte) (queued, open bool) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false, false
	}
	select {
	case c.Send <- message:
		return true, true
	default:
		return false, true
	}
}

// closeSend closes the send channel exactly once. All sends go through
// enqueue, which holds the same lock, so a concurrent broadcast can never
// send on the closed channel.
func (c *Connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage routes one event to every connection on an auction.
type BroadcastMessage struct {
	AuctionID uuid.UUID
	Event     *AuctionEvent
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		auctionConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages. Broadcasts for one auction
// are applied in arrival order, which preserves the per-auction commit
// order the consumer feeds in.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and registers
// it against the auction.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string, auctionID uuid.UUID) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		AuctionID:   auctionID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Str("auction_id", auctionID.String()).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.auctionConnections[conn.AuctionID] == nil {
		cm.auctionConnections[conn.AuctionID] = make(map[*Connection]bool)
	}
	cm.auctionConnections[conn.AuctionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("auction_id", conn.AuctionID.String()).
		Int("total_connections", len(cm.auctionConnections[conn.AuctionID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.auctionConnections[conn.AuctionID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			conn.closeSend()

			if len(connections) == 0 {
				delete(cm.auctionConnections, conn.AuctionID)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Str("auction_id", conn.AuctionID.String()).
				Msg("connection unregistered")
		}
	}
}

// BroadcastToAuction queues an event for every client watching the auction.
func (cm *ConnectionManager) BroadcastToAuction(auctionID uuid.UUID, event *AuctionEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{AuctionID: auctionID, Event: event}:
	default:
		log.Warn().Str("auction_id", auctionID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.auctionConnections[message.AuctionID]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		queued, open := conn.enqueue(eventData)
		if queued || !open {
			continue
		}
		// Slow consumer: drop the connection, it will resync via
		// snapshot on reconnect. Closing the send channel makes the
		// write pump send the close frame and tear the socket down.
		log.Warn().
			Str("connection_id", conn.ID).
			Str("user_id", conn.UserID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
	}

	log.Debug().
		Str("event_type", message.Event.Type).
		Str("auction_id", message.AuctionID.String()).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// Stats returns counts of active connections per auction.
func (cm *ConnectionManager) Stats() (total int, perAuction map[string]int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	perAuction = make(map[string]int, len(cm.auctionConnections))
	for auctionID, connections := range cm.auctionConnections {
		perAuction[auctionID.String()] = len(connections)
		total += len(connections)
	}
	return total, perAuction
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		// The socket is push-only; bids and commands come in over HTTP.
		log.Debug().
			Str("connection_id", c.ID).
			Str("user_id", c.UserID).
			RawJSON("message", message).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
