package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"memorial/internal/domain/models"
	"memorial/internal/lib/logger/sl"
	"memorial/internal/lib/retry"
	"memorial/internal/metrics"
	"memorial/internal/storage"
	"memorial/internal/transport/http/dto"

	"github.com/patrickmn/go-cache"
)

var (
	ErrInvalidUserID   = errors.New("userId is required")
	ErrUnsupportedType = errors.New("file type not supported")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoFile          = errors.New("no file provided")
)

const adminCacheKey = "admin:all"

//go:generate go run github.com/vektra/mockery/v2@v2.53.3 --all
type Synchronizer interface {
	LoadCaptions(ctx context.Context, userID string) (map[string]string, error)
	LoadDeleted(ctx context.Context, userID string) ([]string, error)
	UpdateCaptions(ctx context.Context, userID string, local map[string]string) (map[string]string, error)
	HandleDelete(ctx context.Context, userID, key string, onRemoved func()) error
}

// SlideshowInvalidator сбрасывает собранное слайдшоу пользователя после изменения его файлов
type SlideshowInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type MediaService struct {
	log        *slog.Logger
	store      storage.ObjectStore
	sync       Synchronizer
	retry      retry.Policy
	adminCache *cache.Cache
	slideshows SlideshowInvalidator
	now        func() time.Time
}

func NewMediaService(log *slog.Logger, store storage.ObjectStore, sync Synchronizer, policy retry.Policy, adminTTL time.Duration) *MediaService {
	return &MediaService{
		log:        log,
		store:      store,
		sync:       sync,
		retry:      policy,
		adminCache: cache.New(adminTTL, 2*adminTTL),
		now:        time.Now,
	}
}

// WithSlideshowInvalidator подключает сброс кэша слайдшоу при загрузке, удалении и правке подписей
func (s *MediaService) WithSlideshowInvalidator(inv SlideshowInvalidator) *MediaService {
	s.slideshows = inv
	return s
}

// changed сбрасывает производные представления пространства пользователя
func (s *MediaService) changed(ctx context.Context, log *slog.Logger, userID string) {
	s.adminCache.Delete(adminCacheKey)

	if s.slideshows == nil {
		return
	}
	if err := s.slideshows.Invalidate(ctx, userID); err != nil {
		log.Warn("failed to invalidate slideshow", slog.String("user_id", userID), sl.Err(err))
	}
}

// UploadMedia проверяет файл, кладет его в хранилище с повторами и,
// если задана подпись, дописывает ее в документ подписей.
func (s *MediaService) UploadMedia(ctx context.Context, input dto.MediaUploadInput) (models.UploadResult, error) {
	const op = "media_service.UploadMedia"

	if input.File == nil {
		return models.UploadResult{}, fmt.Errorf("%s: %w", op, ErrNoFile)
	}
	if storage.SanitizeUserID(input.UserID) == "" {
		return models.UploadResult{}, fmt.Errorf("%s: %w", op, ErrInvalidUserID)
	}

	contentType := input.ContentType()

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", input.UserID),
		slog.String("filename", input.File.Filename),
		slog.String("content_type", contentType),
	)

	kind, ok := models.KindOfContentType(contentType)
	if !ok {
		log.Warn("unsupported file type")
		metrics.UploadsTotal.WithLabelValues("unknown", "rejected").Inc()

		return models.UploadResult{}, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedType, contentType)
	}

	if input.File.Size > kind.MaxSize() {
		log.Warn("file too large", slog.Int64("size", input.File.Size))
		metrics.UploadsTotal.WithLabelValues(string(kind), "rejected").Inc()

		return models.UploadResult{}, fmt.Errorf("%s: %w: %d bytes, max %d", op, ErrFileTooLarge, input.File.Size, kind.MaxSize())
	}

	uploadedAt := s.now().UTC()

	key, err := s.freshKey(ctx, input.UserID, storage.MediaKey(input.UserID, kind.Folder(), input.File.Filename), uploadedAt)
	if err != nil {
		log.Error("failed to read deletion log", sl.Err(err))

		return models.UploadResult{}, fmt.Errorf("%s: %w", op, err)
	}

	meta := make(map[string]string, len(input.Metadata)+4)
	for k, v := range input.Metadata {
		meta[k] = v
	}
	meta["user-id"] = storage.SanitizeUserID(input.UserID)
	meta["original-name"] = input.File.Filename
	meta["upload-timestamp"] = uploadedAt.Format(time.RFC3339)
	if input.Caption != "" {
		meta["caption"] = input.Caption
	}

	log.Info("uploading file", slog.String("key", key), slog.Int64("size", input.File.Size))

	err = retry.Do(ctx, s.retry, func(attempt int) error {
		f, err := input.File.Open()
		if err != nil {
			return retry.Permanent(err)
		}
		defer f.Close()

		return s.store.Put(ctx, storage.PutInput{
			Key:         key,
			Body:        f,
			Size:        input.File.Size,
			ContentType: contentType,
			Metadata:    meta,
		})
	}, func(attempt int, err error, wait time.Duration) {
		metrics.UploadRetries.Inc()
		log.Warn("upload attempt failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
			sl.Err(err),
		)
	})
	if err != nil {
		log.Error("upload failed", sl.Err(err))
		metrics.UploadsTotal.WithLabelValues(string(kind), "failed").Inc()

		return models.UploadResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.UploadsTotal.WithLabelValues(string(kind), "ok").Inc()
	metrics.UploadBytes.WithLabelValues(string(kind)).Add(float64(input.File.Size))
	s.changed(ctx, log, input.UserID)

	if input.Caption != "" {
		if _, err := s.sync.UpdateCaptions(ctx, input.UserID, map[string]string{key: input.Caption}); err != nil {
			log.Warn("failed to save caption", sl.Err(err))
		}
	}

	return models.UploadResult{
		URL: s.store.PublicURL(key),
		Key: key,
		Metadata: models.UploadMetadata{
			Size:       input.File.Size,
			Type:       contentType,
			UploadedAt: uploadedAt,
		},
	}, nil
}

// ListMedia возвращает файлы пространства пользователя без пустых объектов,
// служебных документов и ключей из журнала удалений. Подписи подставляются
// из документа подписей.
func (s *MediaService) ListMedia(ctx context.Context, userID string) ([]models.MediaRecord, error) {
	const op = "media_service.ListMedia"

	if storage.SanitizeUserID(userID) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidUserID)
	}

	objects, err := s.store.List(ctx, storage.UserPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.sync.LoadDeleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	captions, err := s.sync.LoadCaptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	skip := make(map[string]struct{}, len(deleted))
	for _, k := range deleted {
		skip[k] = struct{}{}
	}

	records := make([]models.MediaRecord, 0, len(objects))
	for _, obj := range objects {
		if obj.Size == 0 || storage.IsSidecar(obj.Key) {
			continue
		}
		if _, ok := skip[obj.Key]; ok {
			continue
		}

		records = append(records, models.MediaRecord{
			Key:          obj.Key,
			URL:          s.store.PublicURL(obj.Key),
			Kind:         models.KindOfKey(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			Caption:      captions[obj.Key],
		})
	}

	return records, nil
}

// DeleteMedia удаляет файл через синхронизатор, чтобы ключ попал в журнал удалений.
func (s *MediaService) DeleteMedia(ctx context.Context, userID, key string) error {
	const op = "media_service.DeleteMedia"

	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	err := s.sync.HandleDelete(ctx, userID, key, func() {
		s.changed(ctx, log, userID)
	})
	if err != nil {
		metrics.Deletions.WithLabelValues("failed").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.Deletions.WithLabelValues("ok").Inc()

	return nil
}

// UpdateCaptions накладывает подписи поверх сохраненных и сбрасывает кэши
func (s *MediaService) UpdateCaptions(ctx context.Context, userID string, local map[string]string) (map[string]string, error) {
	const op = "media_service.UpdateCaptions"

	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	merged, err := s.sync.UpdateCaptions(ctx, userID, local)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.changed(ctx, log, userID)

	return merged, nil
}

// freshKey возвращает key, если его нет в журнале удалений. Иначе к имени
// файла дописывается -{unix}, чтобы повторная загрузка не скрывалась журналом.
func (s *MediaService) freshKey(ctx context.Context, userID, key string, at time.Time) (string, error) {
	deleted, err := s.sync.LoadDeleted(ctx, userID)
	if err != nil {
		return "", err
	}

	inLog := make(map[string]struct{}, len(deleted))
	for _, k := range deleted {
		inLog[k] = struct{}{}
	}

	if _, ok := inLog[key]; !ok {
		return key, nil
	}

	candidate := storage.SuffixKey(key, "-"+strconv.FormatInt(at.Unix(), 10))
	if _, ok := inLog[candidate]; !ok {
		return candidate, nil
	}

	return storage.SuffixKey(key, "-"+strconv.FormatInt(at.UnixNano(), 10)), nil
}

// AdminListAll обходит все пространства пользователей. Пространство, которое
// не удалось прочитать, пропускается.
func (s *MediaService) AdminListAll(ctx context.Context) ([]models.UserFiles, error) {
	const op = "media_service.AdminListAll"

	log := s.log.With(slog.String("op", op))

	if cached, ok := s.adminCache.Get(adminCacheKey); ok {
		return cached.([]models.UserFiles), nil
	}

	prefixes, err := s.store.ListPrefixes(ctx, storage.UsersPrefix)
	if err != nil {
		log.Error("failed to list namespaces", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.UserFiles, 0, len(prefixes))
	for _, prefix := range prefixes {
		userID := strings.TrimSuffix(strings.TrimPrefix(prefix, storage.UsersPrefix), "/")

		files, err := s.ListMedia(ctx, userID)
		if err != nil {
			log.Warn("skipping namespace", slog.String("user_id", userID), sl.Err(err))
			continue
		}

		out = append(out, models.UserFiles{UserID: userID, Files: files})
	}

	s.adminCache.SetDefault(adminCacheKey, out)

	return out, nil
}
