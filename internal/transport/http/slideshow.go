package http

import (
	"errors"
	"log/slog"
	"net/http"

	slideshow "memorial/internal/services/slideshow_service"
	"memorial/internal/storage"
	"memorial/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// CompileSlideshow godoc
// @Summary Сборка слайдшоу
// @Description Собирает слайдшоу из файлов пользователя и гостевой книги и кэширует результат
// @Tags slideshow
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Param template query string false "Шаблон" Enums(classic, modern, cinematic, collage)
// @Success 200 {object} response.SlideshowResponse
// @Failure 400 {object} response.ErrorResponse "Неизвестный шаблон"
// @Failure 500 {object} response.ErrorResponse
// @Router /api/slideshow/{userId} [get]
func (r *Routers) CompileSlideshow(c echo.Context) error {
	const op = "http.routers.CompileSlideshow"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	tpl, err := slideshow.ParseTemplate(c.QueryParam("template"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	}

	cfg, err := r.SlideshowService.CompileForUser(c.Request().Context(), userID, tpl)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SlideshowResponse{Success: true, Slideshow: cfg})
}

// CachedSlideshow godoc
// @Summary Последнее собранное слайдшоу
// @Tags slideshow
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} response.SlideshowResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/slideshow/{userId}/cached [get]
func (r *Routers) CachedSlideshow(c echo.Context) error {
	const op = "http.routers.CachedSlideshow"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	cfg, err := r.SlideshowService.Cached(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrNoCachedSlideshow)
		}
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SlideshowResponse{Success: true, Slideshow: cfg})
}

// SlideshowStats godoc
// @Summary Статистика слайдшоу
// @Tags slideshow
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Param template query string false "Шаблон" Enums(classic, modern, cinematic, collage)
// @Success 200 {object} response.StatsResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/slideshow/{userId}/stats [get]
func (r *Routers) SlideshowStats(c echo.Context) error {
	const op = "http.routers.SlideshowStats"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	tpl, err := slideshow.ParseTemplate(c.QueryParam("template"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	}

	stats, err := r.SlideshowService.StatsForUser(c.Request().Context(), userID, tpl)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.StatsResponse{Success: true, Stats: stats})
}
