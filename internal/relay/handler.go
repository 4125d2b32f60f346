package relay

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	fiberWS "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/typedash/typedash/internal/realtime"
)

// UpgradeWall rejects plain HTTP requests on the WebSocket route.
func UpgradeWall(c *fiber.Ctx) error {
	if fiberWS.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Handler upgrades the connection and pumps validated frames into the
// hub until the racer disconnects.
func (h *Hub) Handler(validate *validator.Validate) fiber.Handler {
	return fiberWS.New(func(c *fiberWS.Conn) {
		h.events <- event{conn: c, t: evRegister}
		defer func() {
			h.events <- event{conn: c, t: evUnregister}
		}()

		for {
			var env realtime.Envelope
			if err := c.ReadJSON(&env); err != nil {
				slog.Debug("read loop ended", "error", err)
				return
			}
			if err := validate.Struct(env); err != nil {
				slog.Warn("dropping invalid frame", "error", err)
				continue
			}
			h.events <- event{conn: c, t: evFrame, env: env}
		}
	})
}
