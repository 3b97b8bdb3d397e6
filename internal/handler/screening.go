package handler

import (
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-screenings/internal/model"
    "github.com/iliyamo/cinema-screenings/internal/service"
)

// dayLayout is the wire format of the ?date= filter.
const dayLayout = "02-01-2006"

type ref struct {
    ID uint64 `json:"_id" validate:"required"`
}

type screeningRequest struct {
    Movie                  ref    `json:"movie" validate:"required"`
    Room                   ref    `json:"room" validate:"required"`
    Date                   string `json:"date" validate:"required"`
    AdvertisementsDuration int    `json:"advertisementsDuration" validate:"gte=0"`
}

// screeningView is a screening as clients see it: the date is printed
// as "yyyy-MM-dd HH:mm:ss" in the configured zone.
type screeningView struct {
    ID                     uint64              `json:"_id"`
    Date                   string              `json:"date"`
    Movie                  model.Movie         `json:"movie"`
    Room                   model.Room          `json:"room"`
    AdvertisementsDuration int                 `json:"advertisementsDuration"`
    Reservations           []model.Reservation `json:"reservations"`
}

func (h *Handler) view(s model.Screening) screeningView {
    res := s.Reservations
    if res == nil {
        res = []model.Reservation{}
    }
    return screeningView{
        ID:                     s.ID,
        Date:                   s.Date.In(h.Location).Format(model.DateLayout),
        Movie:                  s.Movie,
        Room:                   s.Room,
        AdvertisementsDuration: s.AdvertisementsDuration,
        Reservations:           res,
    }
}

// parseDate accepts RFC 3339 or "yyyy-MM-dd HH:mm:ss" in loc.
func parseDate(v string, loc *time.Location) (time.Time, error) {
    v = strings.TrimSpace(v)
    if t, err := time.Parse(time.RFC3339, v); err == nil {
        return t, nil
    }
    return time.ParseInLocation(model.DateLayout, v, loc)
}

// ListScreenings handles GET /screenings?date=DD-MM-YYYY&movie={id}.
func (h *Handler) ListScreenings(c echo.Context) error {
    var q service.ScreeningQuery
    if v := c.QueryParam("date"); v != "" {
        day, err := time.ParseInLocation(dayLayout, v, h.Location)
        if err != nil {
            return badRequest(c, fmt.Sprintf("invalid date %q; expected DD-MM-YYYY", v))
        }
        q.Day = &day
    }
    if v := c.QueryParam("movie"); v != "" {
        id, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return badRequest(c, fmt.Sprintf("invalid movie id %q", v))
        }
        q.MovieID = &id
    }
    list, err := h.Schedule.ListScreenings(c.Request().Context(), q)
    if err != nil {
        return fail(c, err)
    }
    out := make([]screeningView, 0, len(list))
    for _, s := range list {
        out = append(out, h.view(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"total": len(out), "screenings": out})
}

// CreateScreening handles POST /screenings.  A movie or room that does not
// exist is reported as 409, like a room that is already taken.
func (h *Handler) CreateScreening(c echo.Context) error {
    var req screeningRequest
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    date, err := parseDate(req.Date, h.Location)
    if err != nil {
        return badRequest(c, fmt.Sprintf("invalid date %q; expected yyyy-MM-dd HH:mm:ss or RFC 3339", req.Date))
    }
    s, err := h.Schedule.CreateScreening(c.Request().Context(), service.ScreeningInput{
        MovieID:                req.Movie.ID,
        RoomID:                 req.Room.ID,
        Date:                   date,
        AdvertisementsDuration: req.AdvertisementsDuration,
    })
    if err != nil {
        if service.KindOf(err) == service.KindNotFound {
            return c.JSON(http.StatusConflict, echo.Map{"error": service.MessageOf(err)})
        }
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, h.view(*s))
}

func (h *Handler) GetScreening(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    s, err := h.Schedule.GetScreening(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, h.view(*s))
}

// DeleteScreening removes the screening with its reservations and returns
// what was removed.
func (h *Handler) DeleteScreening(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    s, err := h.Schedule.DeleteScreening(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, h.view(*s))
}

// GetSeats handles GET /screenings/:id/seats.
func (h *Handler) GetSeats(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    m, err := h.Schedule.SeatMap(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}
