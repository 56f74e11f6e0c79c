package server

import (
	"log/slog"

	"recipebox/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationSocket handles GET /api/ws. Each connection receives the
// caller's notifications as they are emitted; the socket is push-only.
func (s *Server) NotificationSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("Failed to register websocket",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			_ = conn.WriteJSON(fiber.Map{"type": "error", "payload": err.Error()})
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
