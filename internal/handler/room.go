package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-screenings/internal/model"
)

type roomRequest struct {
    Name          string `json:"name" validate:"required"`
    NumberOfSeats int    `json:"numberOfSeats" validate:"required,gt=0"`
}

func (h *Handler) ListRooms(c echo.Context) error {
    list, err := h.Catalog.ListRooms(c.Request().Context())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"total": len(list), "rooms": list})
}

func (h *Handler) CreateRoom(c echo.Context) error {
    var req roomRequest
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    r, err := h.Catalog.CreateRoom(c.Request().Context(), model.Room{Name: req.Name, NumberOfSeats: req.NumberOfSeats})
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetRoom(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    r, err := h.Catalog.GetRoom(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// DeleteRoom refuses rooms that still have screenings (409).
func (h *Handler) DeleteRoom(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    r, err := h.Catalog.DeleteRoom(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}
