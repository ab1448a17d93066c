package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"memorial/internal/domain/models"
	"memorial/internal/lib/retry"
	"memorial/internal/storage"
	"memorial/internal/storage/breaker"
	"memorial/internal/transport/http/dto"
	"memorial/internal/transport/http/dto/response"

	media "memorial/internal/services/media_service"
	syncsvc "memorial/internal/services/sync_service"

	"github.com/labstack/echo/v4"

	_ "memorial/docs"
)

type MediaService interface {
	UploadMedia(ctx context.Context, input dto.MediaUploadInput) (models.UploadResult, error)
	ListMedia(ctx context.Context, userID string) ([]models.MediaRecord, error)
	DeleteMedia(ctx context.Context, userID, key string) error
	UpdateCaptions(ctx context.Context, userID string, local map[string]string) (map[string]string, error)
	AdminListAll(ctx context.Context) ([]models.UserFiles, error)
}

type SyncService interface {
	LoadCaptions(ctx context.Context, userID string) (map[string]string, error)
	LoadDeleted(ctx context.Context, userID string) ([]string, error)
}

type SlideshowService interface {
	CompileForUser(ctx context.Context, userID string, template models.Template) (models.SlideshowConfig, error)
	Cached(ctx context.Context, userID string) (models.SlideshowConfig, error)
	StatsForUser(ctx context.Context, userID string, template models.Template) (models.SlideshowStats, error)
}

type TributeService interface {
	AddTribute(ctx context.Context, name, relationship, memory string) (models.Tribute, error)
	ListTributes(ctx context.Context) ([]models.Tribute, error)
	ListTimeline(ctx context.Context) ([]models.TimelineEvent, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (models.SessionUser, string, error)
	Verify(token string) (models.SessionUser, error)
}

type Routers struct {
	log              *slog.Logger
	MediaService     MediaService
	SyncService      SyncService
	SlideshowService SlideshowService
	TributeService   TributeService
	AuthService      AuthService
}

func NewRouter(log *slog.Logger, mediaService MediaService, syncService SyncService, slideshowService SlideshowService, tributeService TributeService, authService AuthService) *Routers {
	return &Routers{
		log:              log,
		MediaService:     mediaService,
		SyncService:      syncService,
		SlideshowService: slideshowService,
		TributeService:   tributeService,
		AuthService:      authService,
	}
}

// Health godoc
// @Summary Проверка доступности
// @Tags system
// @Produce json
// @Success 200 {object} response.HealthResponse
// @Router /api/health [get]
func (r *Routers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, response.HealthResponse{
		Status:  "ok",
		Message: "Upload API is running",
	})
}

// storageStatus сопоставляет ошибку сервисов HTTP-статусу и тексту для клиента
func storageStatus(err error) (int, string) {
	var exhausted *retry.ExhaustedError

	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "File type not supported"
	case errors.Is(err, media.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, media.ErrNoFile):
		return http.StatusBadRequest, response.ErrNoFile.Error
	case errors.Is(err, media.ErrInvalidUserID), errors.Is(err, syncsvc.ErrInvalidUserID):
		return http.StatusBadRequest, response.ErrUserIDRequired.Error
	case errors.Is(err, syncsvc.ErrForeignKey):
		return http.StatusForbidden, response.ErrForbiddenKey.Error
	case errors.As(err, &exhausted):
		return http.StatusInternalServerError,
			fmt.Sprintf("Upload failed after %d attempts: %s", exhausted.Attempts, storage.Hint(exhausted.Last))
	case errors.Is(err, breaker.ErrUnavailable):
		return http.StatusServiceUnavailable, "Storage temporarily unavailable"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "Request cancelled"
	default:
		return http.StatusInternalServerError, storage.Hint(err)
	}
}

func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	status, msg := storageStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	} else {
		log.Warn("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	return c.JSON(status, response.Error(msg))
}

// objectKey возвращает ключ из wildcard-сегмента пути, раскодируя %XX
func objectKey(c echo.Context) string {
	raw := c.Param("*")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
