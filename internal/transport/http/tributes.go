package http

import (
	"errors"
	"log/slog"
	"net/http"

	"memorial/internal/lib/logger/sl"
	tributes "memorial/internal/services/tribute_service"
	"memorial/internal/transport/http/dto"
	"memorial/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ListTributes godoc
// @Summary Записи гостевой книги
// @Tags tributes
// @Produce json
// @Success 200 {object} response.TributesResponse
// @Router /api/tributes [get]
func (r *Routers) ListTributes(c echo.Context) error {
	const op = "http.routers.ListTributes"

	log := r.log.With(slog.String("op", op))

	list, err := r.TributeService.ListTributes(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.TributesResponse{Success: true, Tributes: list})
}

// AddTribute godoc
// @Summary Новая запись гостевой книги
// @Tags tributes
// @Accept json
// @Produce json
// @Param request body dto.TributeRequest true "Запись"
// @Success 201 {object} response.TributeResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/tributes [post]
func (r *Routers) AddTribute(c echo.Context) error {
	const op = "http.routers.AddTribute"

	log := r.log.With(slog.String("op", op))

	var req dto.TributeRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorWithDetails(response.ErrInvalidRequestFormat.Error, err.Error()))
	}

	tribute, err := r.TributeService.AddTribute(c.Request().Context(), req.Name, req.Relationship, req.Memory)
	if err != nil {
		if errors.Is(err, tributes.ErrInvalidTribute) {
			return c.JSON(http.StatusBadRequest, response.Error(tributes.ErrInvalidTribute.Error()))
		}
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.TributeResponse{Success: true, Tribute: tribute})
}

// ListTimeline godoc
// @Summary События хронологии
// @Tags tributes
// @Produce json
// @Success 200 {object} response.TimelineResponse
// @Router /api/timeline [get]
func (r *Routers) ListTimeline(c echo.Context) error {
	const op = "http.routers.ListTimeline"

	log := r.log.With(slog.String("op", op))

	events, err := r.TributeService.ListTimeline(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.TimelineResponse{Success: true, Events: events})
}
