// Package transport provides the WebSocket chat binding for the arena.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// outFrame is the JSON frame written to chat clients.
type outFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type channelConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// ChannelManager tracks the active WebSocket connection per channel and
// implements the orchestrator's Outbound. Sends to channels with no active
// connection are dropped; delivery is fire-and-forget.
type ChannelManager struct {
	mu     sync.RWMutex
	active map[string]*channelConn
}

// NewChannelManager creates an empty channel registry.
func NewChannelManager() *ChannelManager {
	return &ChannelManager{active: make(map[string]*channelConn)}
}

// Register adds a connection for a channel, replacing any existing one.
func (m *ChannelManager) Register(channel string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.active[channel]; ok && existing.conn != conn {
		_ = existing.conn.Close(websocket.StatusNormalClosure, "session replaced")
	}
	m.active[channel] = &channelConn{conn: conn}
	slog.Info("chat channel registered", "channel", channel)
}

// Unregister removes a connection for a channel if it is still current.
func (m *ChannelManager) Unregister(channel string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.active[channel]; ok && current.conn == conn {
		delete(m.active, channel)
		slog.Info("chat channel unregistered", "channel", channel)
	}
}

// Send writes one text frame to the channel's connection.
func (m *ChannelManager) Send(ctx context.Context, channel, text string) error {
	m.mu.RLock()
	cc, ok := m.active[channel]
	m.mu.RUnlock()
	if !ok {
		return errors.New("no active connection for channel " + channel)
	}

	payload, err := json.Marshal(outFrame{Type: "message", Text: text})
	if err != nil {
		return err
	}

	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	return cc.conn.Write(ctx, websocket.MessageText, payload)
}
