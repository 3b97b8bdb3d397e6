package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-screenings/internal/model"
    "github.com/iliyamo/cinema-screenings/internal/service"
)

type reservationRequest struct {
    Seats  []model.Seat `json:"seats" validate:"required,min=1,dive"`
    Client model.Client `json:"client" validate:"required"`
}

type invoiceSummary struct {
    Number   string `json:"number"`
    Total    int64  `json:"total"`
    Currency string `json:"currency"`
}

func (h *Handler) ListReservations(c echo.Context) error {
    sid, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    list, err := h.Reservations.List(c.Request().Context(), sid)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"total": len(list), "reservations": list})
}

// CreateReservation handles POST /screenings/:id/reservations.  The
// response is written only after the invoice has been mailed or the
// attempt has failed; on failure the reservation is still included
// because its seats remain booked.
func (h *Handler) CreateReservation(c echo.Context) error {
    sid, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    var req reservationRequest
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    conf, err := h.Reservations.Create(c.Request().Context(), sid, service.ReservationInput{
        Seats:  req.Seats,
        Client: req.Client,
    })
    if err != nil {
        if conf == nil {
            return fail(c, err)
        }
        c.Logger().Errorf("reservation %d committed, fulfillment failed: %v", conf.Reservation.ID, err)
        return c.JSON(statusFor(service.KindOf(err)), echo.Map{
            "error":       service.MessageOf(err),
            "reservation": conf.Reservation,
        })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "reservation": conf.Reservation,
        "invoice": invoiceSummary{
            Number:   conf.Invoice.Number,
            Total:    conf.Invoice.Total,
            Currency: conf.Invoice.Currency,
        },
    })
}

func (h *Handler) GetReservation(c echo.Context) error {
    sid, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    rid, ok := parseID(c, "reservationId")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    r, err := h.Reservations.Get(c.Request().Context(), sid, rid)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteReservation(c echo.Context) error {
    sid, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid screening id")
    }
    rid, ok := parseID(c, "reservationId")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    if err := h.Reservations.Delete(c.Request().Context(), sid, rid); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"_id": rid, "deleted": true})
}
