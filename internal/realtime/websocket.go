package realtime

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

type Authenticator interface {
	Authenticate(token string) (*internal.User, error)
}

// WSHandler upgrades authenticated requests and forwards every refresh signal to the socket.
type WSHandler struct {
	*transport.BaseHandler
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, auth Authenticator, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		hub:         hub,
		auth:        auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeHTTP handles GET /ws?token=... Browsers cannot set headers on a WebSocket handshake, so the
// token travels in the query string; an Authorization header is accepted as well.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = h.ExtractTokenFromHeader(r)
	}
	user, err := h.auth.Authenticate(token)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: h.Logger.With("user_id", user.ID),
	}
	unsubscribeTickets := h.hub.Subscribe(TopicTickets, c.notify)
	unsubscribeUsers := h.hub.Subscribe(TopicUsers, c.notify)
	defer func() {
		unsubscribeTickets()
		unsubscribeUsers()
	}()

	c.logger.Debug("websocket client connected")
	go c.writePump(h.hub.Done())
	c.readPump()
	c.logger.Debug("websocket client disconnected")
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger
}

// notify never blocks the publisher. A client that cannot keep up misses the signal, which is
// harmless because the next one triggers the same re-fetch.
func (c *client) notify(topic Topic) {
	select {
	case c.send <- topic.Message():
	case <-c.done:
	default:
		c.logger.Debug("websocket client buffer full, signal dropped", "topic", topic)
	}
}

// readPump discards client frames and watches for disconnects.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (c *client) writePump(hubDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-hubDone:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-c.done:
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
