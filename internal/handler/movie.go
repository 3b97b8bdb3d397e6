package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-screenings/internal/model"
)

type movieRequest struct {
    Title          string        `json:"title" validate:"required"`
    Director       string        `json:"director" validate:"required"`
    Release        model.Release `json:"release" validate:"required"`
    Duration       int           `json:"duration" validate:"required,gt=0"`
    AgeRestriction int           `json:"ageRestriction" validate:"gte=0"`
    Cast           []string      `json:"cast"`
    Genres         []string      `json:"genres"`
    Description    string        `json:"description" validate:"required"`
}

// ListMovies handles GET /movies.  Movies are sorted by title.
func (h *Handler) ListMovies(c echo.Context) error {
    list, err := h.Catalog.ListMovies(c.Request().Context())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"total": len(list), "movies": list})
}

// CreateMovie handles POST /movies.
func (h *Handler) CreateMovie(c echo.Context) error {
    var req movieRequest
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    m, err := h.Catalog.CreateMovie(c.Request().Context(), model.Movie{
        Title:          req.Title,
        Director:       req.Director,
        Release:        req.Release,
        Duration:       req.Duration,
        AgeRestriction: req.AgeRestriction,
        Cast:           req.Cast,
        Genres:         req.Genres,
        Description:    req.Description,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, m)
}

// GetMovie handles GET /movies/:id.
func (h *Handler) GetMovie(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid movie id")
    }
    m, err := h.Catalog.GetMovie(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// UpdateMovie handles PATCH /movies/:id; absent fields are unchanged.
func (h *Handler) UpdateMovie(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid movie id")
    }
    var patch model.MoviePatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid JSON body")
    }
    m, err := h.Catalog.UpdateMovie(c.Request().Context(), id, patch)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// DeleteMovie handles DELETE /movies/:id and returns the removed movie.
func (h *Handler) DeleteMovie(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid movie id")
    }
    m, err := h.Catalog.DeleteMovie(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}
