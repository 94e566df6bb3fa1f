package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// writeWait bounds how long a single websocket write may block.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MessageEnvelope represents a multiplexed WebSocket message. Clients send
// actions addressed to a table; the server answers with the table's HTML.
type MessageEnvelope struct {
	BlockID string          `json:"blockID,omitempty"`
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data,omitempty"`
	HTML    string          `json:"html,omitempty"`
}

// wsClient serialises writes to one connection; gorilla allows a single
// concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(envelope MessageEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WebSocketHandler drives the tables of one page for one learner.
type WebSocketHandler struct {
	tables  *tableSet
	server  *Server // Reference to server for connection tracking
	header  http.Header
	actions *rate.Limiter // nil means unthrottled
	log     *zap.Logger

	// throttled is set while actions are being dropped, so each run of
	// dropped actions is logged once. Only the read loop touches it.
	throttled bool
}

// NewWebSocketHandler creates a handler for a page's tables. header is sent
// with the upgrade response and actions throttles incoming messages.
func NewWebSocketHandler(tables *tableSet, server *Server, header http.Header, actions *rate.Limiter, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		tables:  tables,
		server:  server,
		header:  header,
		actions: actions,
		log:     logger,
	}
}

// serveWebSocket resolves the page named by the page query parameter and
// hands the connection to a WebSocketHandler.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	pg, err := resolvePage(s.Index(), r.URL.Query().Get("page"))
	if err != nil {
		var nf *notFound
		if errors.As(err, &nf) {
			s.renderNotFound(w, r, nf)
			return
		}
		s.serverError(w, err)
		return
	}

	theme := s.theme(r)
	session, cookie := sessionID(r)
	header := http.Header{}
	if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}
	tables := s.sessions.tables(session, pg.Path, func() *tableSet {
		return newTableSet(pg.Entries, theme)
	})
	tables.setTheme(theme)

	logger := s.log.Named("ws").With(zap.String("page", pg.Path))
	NewWebSocketHandler(tables, s, header, s.limits.newLimiter(), logger).ServeHTTP(w, r)
}

// ServeHTTP handles WebSocket upgrade and message routing.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, h.header)
	if err != nil {
		h.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn}
	defer func() {
		if h.server != nil {
			h.server.unregisterConnection(client)
		}
		conn.Close()
	}()

	// Register connection for reload broadcasts
	if h.server != nil {
		h.server.registerConnection(client)
	}

	h.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	// The page may have been served before the session's tables changed,
	// e.g. from the browser's back-forward cache.
	h.sendInitialState(client)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("unexpected close", zap.Error(err))
			}
			break
		}

		h.log.Debug("received", zap.ByteString("message", message))
		h.handleMessage(client, message)
	}

	h.log.Debug("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (h *WebSocketHandler) sendInitialState(client *wsClient) {
	for _, id := range h.tables.order {
		h.sendUpdate(client, id)
	}
}

// handleMessage routes an incoming message to its table. Rejected actions
// and actions over the connection's rate are logged and leave the client's
// view untouched.
func (h *WebSocketHandler) handleMessage(client *wsClient, message []byte) {
	if h.actions != nil && !h.actions.Allow() {
		if !h.throttled {
			h.log.Warn("dropping actions over the rate limit",
				zap.Float64("rate", float64(h.actions.Limit())),
				zap.Int("burst", h.actions.Burst()))
			h.throttled = true
		}
		return
	}
	h.throttled = false

	var envelope MessageEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		h.log.Warn("failed to parse message", zap.Error(err))
		return
	}

	t, ok := h.tables.get(envelope.BlockID)
	if !ok {
		h.log.Warn("unknown block", zap.String("block", envelope.BlockID))
		return
	}

	data := make(map[string]interface{})
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.log.Warn("failed to parse action data",
				zap.String("block", envelope.BlockID),
				zap.String("action", envelope.Action),
				zap.Error(err))
			return
		}
	}

	changed, err := t.HandleAction(envelope.Action, data)
	if err != nil {
		h.log.Warn("action rejected",
			zap.String("block", envelope.BlockID),
			zap.String("action", envelope.Action),
			zap.Error(err))
		return
	}
	if changed {
		h.sendUpdate(client, envelope.BlockID)
	}
}

// sendUpdate re-renders a table and sends its HTML to the client.
func (h *WebSocketHandler) sendUpdate(client *wsClient, id string) {
	t, ok := h.tables.get(id)
	if !ok {
		return
	}
	html, err := t.HTML()
	if err != nil {
		h.log.Error("failed to render table", zap.String("block", id), zap.Error(err))
		return
	}
	if err := client.send(MessageEnvelope{BlockID: id, Action: "html", HTML: string(html)}); err != nil {
		h.log.Warn("failed to send message", zap.String("block", id), zap.Error(err))
	}
}

// registerConnection adds a WebSocket connection to the tracked connections.
func (s *Server) registerConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.connections[c] = true
	s.log.Debug("websocket connection registered", zap.Int("active", len(s.connections)))
}

// unregisterConnection removes a WebSocket connection from tracked connections.
func (s *Server) unregisterConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.connections, c)
	s.log.Debug("websocket connection unregistered", zap.Int("active", len(s.connections)))
}

// BroadcastReload asks every connected browser to reload its page.
func (s *Server) BroadcastReload(filePath string) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	if len(s.connections) == 0 {
		return
	}

	s.log.Info("broadcasting reload",
		zap.String("file", filePath),
		zap.Int("connections", len(s.connections)))

	for c := range s.connections {
		if err := c.send(MessageEnvelope{Action: "reload"}); err != nil {
			s.log.Warn("failed to send reload", zap.Error(err))
		}
	}
}
