package live

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"
)

// NewServer builds the Echo instance for the monitoring surface:
// a health check, the latest recognized UID, and the WebSocket stream.
func NewServer(h *Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/uid/latest", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"uid": h.Latest()})
	})
	e.GET("/ws", func(c echo.Context) error {
		websocket.Handler(h.ServeWS).ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return e
}
