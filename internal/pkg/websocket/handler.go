package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/gradebook/internal/app/auth"
)

// Same-origin only: the feed rides on the session cookie.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades student dashboard connections
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// HandleConnection subscribes the current student to their grade events.
// The route is expected to sit behind the student gate.
func (h *Handler) HandleConnection(c *gin.Context) {
	principal := appauth.FromContext(c.Request.Context())
	if principal.Student == nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	studentID := principal.Student.ID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Int64("studentID", studentID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, 16),
		studentID: studentID,
		logger:    h.logger,
	}
	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
