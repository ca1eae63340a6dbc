package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"talentvault_backend/internal/auth"
	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the reverse proxy in production
	},
}

type Handler struct {
	Manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{Manager: manager}
}

// ServeWS upgrades the request and registers the connection. Identity and
// role come from the JWT: browsers cannot set an Authorization header on a
// websocket handshake, so the token arrives as a query parameter.
func (h *Handler) ServeWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized. 'token' query parameter is required."})
		return
	}

	claims, err := auth.ParseToken(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	role := models.UserRole(claims.Role)
	if !role.Valid() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("ws upgrade failed", "error", err)
		return
	}

	client := h.Manager.NewClient(claims.UserID, role, conn)
	h.Manager.Register(client)

	go client.ReadPump()
	go client.WritePump()
}
