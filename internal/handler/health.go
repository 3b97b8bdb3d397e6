package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is anything Health can ping, typically *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health reports "ok" while the backing store answers.  With no pinger
// (the in-memory store) it always succeeds.
func Health(p Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if p != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := p.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "store unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
