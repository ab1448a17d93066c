package http

import (
	"log/slog"
	"net/http"

	"memorial/internal/lib/logger/sl"
	"memorial/internal/transport/http/dto"
	"memorial/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// GetCaptions godoc
// @Summary Подписи пользователя
// @Description Для нового пользователя возвращается пустой объект
// @Tags captions
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} response.CaptionsResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/captions/{userId} [get]
func (r *Routers) GetCaptions(c echo.Context) error {
	const op = "http.routers.GetCaptions"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	captions, err := r.SyncService.LoadCaptions(c.Request().Context(), userID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.CaptionsResponse{Success: true, Captions: captions})
}

// UpdateCaptions godoc
// @Summary Обновление подписей
// @Description Переданные подписи накладываются поверх сохраненных, пустые значения игнорируются
// @Tags captions
// @Accept json
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Param request body dto.CaptionsRequest true "Подписи по ключам объектов"
// @Success 200 {object} response.CaptionsResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/captions/{userId} [put]
func (r *Routers) UpdateCaptions(c echo.Context) error {
	const op = "http.routers.UpdateCaptions"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	var req dto.CaptionsRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorWithDetails(response.ErrInvalidRequestFormat.Error, err.Error()))
	}

	merged, err := r.MediaService.UpdateCaptions(c.Request().Context(), userID, req.Captions)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.CaptionsResponse{Success: true, Captions: merged})
}

// GetDeleted godoc
// @Summary Журнал удалений пользователя
// @Tags captions
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} response.DeletedResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/deleted/{userId} [get]
func (r *Routers) GetDeleted(c echo.Context) error {
	const op = "http.routers.GetDeleted"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	deleted, err := r.SyncService.LoadDeleted(c.Request().Context(), userID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.DeletedResponse{Success: true, Deleted: deleted})
}
