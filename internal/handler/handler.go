// Package handler exposes the catalog, schedule and reservation engines
// over HTTP.  Every error response is {"error": "<message>"} with a status
// derived from the engine error kind.
package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-screenings/internal/service"
)

// Handler bundles the engines the HTTP surface talks to.  Location is
// the zone day filters and zone-less request dates are read in, and the
// zone response dates are printed in.
type Handler struct {
    Catalog      *service.CatalogService
    Schedule     *service.ScheduleService
    Reservations *service.ReservationService
    Location     *time.Location
}

// New constructs a Handler and panics if an engine is missing.
func New(catalog *service.CatalogService, schedule *service.ScheduleService, reservations *service.ReservationService, loc *time.Location) *Handler {
    if catalog == nil || schedule == nil || reservations == nil {
        panic("nil service passed to handler.New")
    }
    if loc == nil {
        loc = time.Local
    }
    return &Handler{Catalog: catalog, Schedule: schedule, Reservations: reservations, Location: loc}
}

// statusFor maps an engine error kind onto an HTTP status.
func statusFor(kind service.Kind) int {
    switch kind {
    case service.KindNotFound:
        return http.StatusNotFound
    case service.KindConflict:
        return http.StatusConflict
    case service.KindInvalidArgument:
        return http.StatusBadRequest
    case service.KindUnavailable:
        return http.StatusServiceUnavailable
    default:
        return http.StatusInternalServerError
    }
}

func fail(c echo.Context, err error) error {
    status := statusFor(service.KindOf(err))
    if status >= http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    }
    return c.JSON(status, echo.Map{"error": service.MessageOf(err)})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// bindValid binds the JSON body into req and validates it.  It returns
// the client-facing problem, or "" when req is usable.
func bindValid(c echo.Context, req any) string {
    if err := c.Bind(req); err != nil {
        return "invalid JSON body"
    }
    if err := c.Validate(req); err != nil {
        return err.Error()
    }
    return ""
}
