package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"memorial/internal/lib/logger/sl"
	"memorial/internal/transport/http/dto"
	"memorial/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// UploadMedia godoc
// @Summary Загрузка медиафайла
// @Description Загружает файл в пространство пользователя. Повторяет запись в хранилище до 3 раз.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл (изображения до 10MB, аудио до 20MB, видео до 100MB)"
// @Param userId formData string true "Идентификатор пользователя"
// @Param caption formData string false "Подпись"
// @Param metadata formData string false "Дополнительные метаданные в JSON-формате"
// @Success 200 {object} response.UploadResponse
// @Failure 400 {object} response.ErrorResponse "Нет файла или userId"
// @Failure 413 {object} response.ErrorResponse "Превышен максимальный размер файла"
// @Failure 415 {object} response.ErrorResponse "Неподдерживаемый тип файла"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /api/upload [post]
func (r *Routers) UploadMedia(c echo.Context) error {
	const op = "http.routers.UploadMedia"

	log := r.log.With(
		slog.String("op", op),
		slog.String("client_ip", c.RealIP()),
	)

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("empty file in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrNoFile)
	}

	input := dto.MediaUploadInput{
		UserID:   c.FormValue("userId"),
		File:     file,
		Caption:  c.FormValue("caption"),
		Metadata: parseMetadata(log, c.FormValue("metadata")),
	}

	if err := c.Validate(&input); err != nil {
		log.Warn("invalid upload form", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorWithDetails(response.ErrUserIDRequired.Error, err.Error()))
	}

	log.Debug("got file for upload",
		slog.String("user_id", input.UserID),
		slog.String("filename", file.Filename),
		slog.Int64("size", file.Size),
	)

	res, err := r.MediaService.UploadMedia(c.Request().Context(), input)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.UploadResponse{
		Success:  true,
		URL:      res.URL,
		Key:      res.Key,
		Metadata: res.Metadata,
	})
}

// parseMetadata разбирает JSON-объект метаданных. Некорректный JSON игнорируется.
func parseMetadata(log *slog.Logger, raw string) map[string]string {
	if raw == "" {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		log.Warn("ignoring invalid metadata", sl.Err(err))
		return nil
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}

	return out
}

// ListFiles godoc
// @Summary Список файлов пользователя
// @Description Пустые объекты, служебные документы и удаленные файлы не возвращаются
// @Tags media
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} response.FilesResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/files/{userId} [get]
func (r *Routers) ListFiles(c echo.Context) error {
	const op = "http.routers.ListFiles"

	userID := c.Param("userId")
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	records, err := r.MediaService.ListMedia(c.Request().Context(), userID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.FilesResponse{
		Success: true,
		Files:   response.Files(records),
	})
}

// DeleteFile godoc
// @Summary Удаление файла
// @Description Удаляет объект и записывает ключ в журнал удалений пользователя
// @Tags media
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Param key path string true "Ключ объекта (URL-encoded)"
// @Success 200 {object} response.MessageResponse
// @Failure 403 {object} response.ErrorResponse "Ключ вне пространства пользователя"
// @Failure 500 {object} response.ErrorResponse
// @Router /api/files/{userId}/{key} [delete]
func (r *Routers) DeleteFile(c echo.Context) error {
	const op = "http.routers.DeleteFile"

	userID := c.Param("userId")
	key := objectKey(c)

	log := r.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("key", key),
	)

	if err := r.MediaService.DeleteMedia(c.Request().Context(), userID, key); err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.MessageResponse{
		Success: true,
		Message: "File deleted successfully",
	})
}

// AdminListFiles godoc
// @Summary Файлы всех пользователей
// @Description Пространства, которые не удалось прочитать, пропускаются
// @Tags admin
// @Produce json
// @Success 200 {object} response.AdminFilesResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/files [get]
func (r *Routers) AdminListFiles(c echo.Context) error {
	const op = "http.routers.AdminListFiles"

	log := r.log.With(slog.String("op", op))

	all, err := r.MediaService.AdminListAll(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	users := make([]dto.UserFilesResponse, 0, len(all))
	for _, u := range all {
		users = append(users, dto.UserFilesResponse{
			UserID: u.UserID,
			Files:  response.Files(u.Files),
		})
	}

	return c.JSON(http.StatusOK, response.AdminFilesResponse{Success: true, Users: users})
}

// AdminDeleteFile godoc
// @Summary Удаление файла модератором
// @Tags admin
// @Produce json
// @Param userId path string true "Пространство пользователя"
// @Param key path string true "Ключ объекта (URL-encoded)"
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/files/{userId}/{key} [delete]
func (r *Routers) AdminDeleteFile(c echo.Context) error {
	const op = "http.routers.AdminDeleteFile"

	userID := c.Param("userId")
	key := objectKey(c)

	log := r.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("key", key),
	)

	if admin, ok := CurrentUser(c); ok {
		log = log.With(slog.String("admin", admin.Email))
	}

	if err := r.MediaService.DeleteMedia(c.Request().Context(), userID, key); err != nil {
		return r.fail(c, log, err)
	}

	log.Info("file removed by admin")

	return c.JSON(http.StatusOK, response.MessageResponse{
		Success: true,
		Message: fmt.Sprintf("File %s deleted", key),
	})
}
