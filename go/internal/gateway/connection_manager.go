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
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages WebSocket connections watching tournament clocks
type ConnectionManager struct {
	// Connection pools organized by tournament ID
	tournamentConnections map[uuid.UUID]map[*Connection]bool
	mu                    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID           string
	TournamentID uuid.UUID
	Conn         *websocket.Conn
	Send         chan []byte
	Manager      *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	TournamentID uuid.UUID
	Message      *ClockMessage
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
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Origins are enforced by the CORS layer in front of the server
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	return &ConnectionManager{
		tournamentConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcast messages until ctx is cancelled
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

// OnClockEvent forwards a clock event to every connection watching the
// tournament. It never blocks the clock.
func (cm *ConnectionManager) OnClockEvent(e clock.Event) {
	msg, err := newClockMessage(e)
	if err != nil {
		log.Error().Err(err).Str("tournament_id", e.TournamentID.String()).Msg("failed to encode clock event")
		return
	}
	cm.BroadcastToTournament(e.TournamentID, msg)
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and queues
// initial as the first frame.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, tournamentID uuid.UUID, initial *ClockMessage) error {
	first, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("failed to marshal initial message: %w", err)
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:           uuid.New().String(),
		TournamentID: tournamentID,
		Conn:         conn,
		Send:         make(chan []byte, cm.config.SendBufferSize),
		Manager:      cm,
		ConnectedAt:  time.Now(),
	}
	connection.Send <- first

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("tournament_id", tournamentID.String()).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.tournamentConnections[conn.TournamentID] == nil {
		cm.tournamentConnections[conn.TournamentID] = make(map[*Connection]bool)
	}
	cm.tournamentConnections[conn.TournamentID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("tournament_id", conn.TournamentID.String()).
		Int("total_connections", len(cm.tournamentConnections[conn.TournamentID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.tournamentConnections[conn.TournamentID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}

	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.tournamentConnections, conn.TournamentID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("tournament_id", conn.TournamentID.String()).
		Msg("connection unregistered")
}

// BroadcastToTournament queues a message for all connections of a tournament
func (cm *ConnectionManager) BroadcastToTournament(tournamentID uuid.UUID, message *ClockMessage) {
	select {
	case cm.broadcastCh <- BroadcastMessage{TournamentID: tournamentID, Message: message}:
	default:
		log.Warn().Str("tournament_id", tournamentID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	data, err := json.Marshal(message.Message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}

	// Sends happen under the read lock: unregisterConnection closes Send
	// under the write lock.
	var slow []*Connection
	cm.mu.RLock()
	for conn := range cm.tournamentConnections[message.TournamentID] {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// ConnectionStats summarises open connections
type ConnectionStats struct {
	TotalConnections      int            `json:"total_connections"`
	ActiveTournaments     int            `json:"active_tournaments"`
	TournamentConnections map[string]int `json:"tournament_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveTournaments:     len(cm.tournamentConnections),
		TournamentConnections: make(map[string]int, len(cm.tournamentConnections)),
	}
	for id, connections := range cm.tournamentConnections {
		stats.TotalConnections += len(connections)
		stats.TournamentConnections[id.String()] = len(connections)
	}
	return stats
}

// writePump handles sending messages to the WebSocket connection
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
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// Clients send no commands over the socket.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
