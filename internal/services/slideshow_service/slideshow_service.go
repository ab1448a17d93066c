package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"memorial/internal/domain/models"
	"memorial/internal/lib/logger/sl"
	"memorial/internal/metrics"
	"memorial/internal/storage"
)

var ErrUnknownTemplate = errors.New("unknown template")

//go:generate go run github.com/vektra/mockery/v2@v2.53.3 --all
type MediaLister interface {
	ListMedia(ctx context.Context, userID string) ([]models.MediaRecord, error)
}

type TributeProvider interface {
	ListTributes(ctx context.Context) ([]models.Tribute, error)
	ListTimeline(ctx context.Context) ([]models.TimelineEvent, error)
}

type SlideshowCache interface {
	Save(ctx context.Context, userID string, cached models.CachedSlideshow) error
	Load(ctx context.Context, userID string) (models.CachedSlideshow, error)
	Invalidate(ctx context.Context, userID string) error
}

const musicVolume = 1.0

type SlideshowService struct {
	log      *slog.Logger
	media    MediaLister
	tributes TributeProvider
	cache    SlideshowCache
	title    string
	now      func() time.Time
	rng      *rand.Rand
}

func NewSlideshowService(log *slog.Logger, media MediaLister, tributes TributeProvider, cache SlideshowCache, title string) *SlideshowService {
	if title == "" {
		title = DefaultTitle
	}

	return &SlideshowService{
		log:      log,
		media:    media,
		tributes: tributes,
		cache:    cache,
		title:    title,
		now:      time.Now,
	}
}

// WithRand фиксирует источник случайности (для тестов шаблона collage)
func (s *SlideshowService) WithRand(rng *rand.Rand) *SlideshowService {
	s.rng = rng
	return s
}

// ParseTemplate возвращает classic для пустой строки и ErrUnknownTemplate
// для неизвестного имени.
func ParseTemplate(name string) (models.Template, error) {
	if name == "" {
		return models.TemplateClassic, nil
	}

	tpl := models.Template(name)
	if !tpl.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	return tpl, nil
}

// CompileForUser собирает слайдшоу из медиа пользователя и общей гостевой книги
// и сохраняет результат в кэш. Ошибка записи в кэш не прерывает сборку.
func (s *SlideshowService) CompileForUser(ctx context.Context, userID string, template models.Template) (models.SlideshowConfig, error) {
	const op = "slideshow_service.CompileForUser"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("template", string(template)),
	)

	in, err := s.input(ctx, userID)
	if err != nil {
		log.Error("failed to collect slideshow sources", sl.Err(err))

		return models.SlideshowConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	opts := []Option{WithTitle(s.title), WithClock(s.now)}
	if s.rng != nil {
		opts = append(opts, WithRand(s.rng))
	}

	cfg := Compile(in, template, opts...)
	metrics.SlideshowCompiles.WithLabelValues(string(template)).Inc()

	if err := s.cache.Save(ctx, userID, models.CacheOf(cfg)); err != nil {
		log.Warn("failed to cache slideshow", sl.Err(err))
	}

	log.Info("slideshow compiled",
		slog.Int("slides", len(cfg.Slides)),
		slog.Int("total_duration", cfg.TotalDuration),
	)

	return cfg, nil
}

// Cached возвращает последнюю собранную конфигурацию; при промахе - storage.ErrNotFound
func (s *SlideshowService) Cached(ctx context.Context, userID string) (models.SlideshowConfig, error) {
	const op = "slideshow_service.Cached"

	cached, err := s.cache.Load(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to load cached slideshow",
				slog.String("op", op),
				slog.String("user_id", userID),
				sl.Err(err),
			)
		}
		return models.SlideshowConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	return cached.Config(s.title), nil
}

// Invalidate удаляет собранное слайдшоу, после чего Cached возвращает storage.ErrNotFound
func (s *SlideshowService) Invalidate(ctx context.Context, userID string) error {
	const op = "slideshow_service.Invalidate"

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SlideshowService) StatsForUser(ctx context.Context, userID string, template models.Template) (models.SlideshowStats, error) {
	const op = "slideshow_service.StatsForUser"

	cfg, err := s.CompileForUser(ctx, userID, template)
	if err != nil {
		return models.SlideshowStats{}, fmt.Errorf("%s: %w", op, err)
	}

	return Stats(cfg), nil
}

func (s *SlideshowService) input(ctx context.Context, userID string) (CompileInput, error) {
	records, err := s.media.ListMedia(ctx, userID)
	if err != nil {
		return CompileInput{}, err
	}

	tributes, err := s.tributes.ListTributes(ctx)
	if err != nil {
		return CompileInput{}, err
	}

	timeline, err := s.tributes.ListTimeline(ctx)
	if err != nil {
		return CompileInput{}, err
	}

	authors := make(map[string]string, len(records))
	music := make([]models.AudioTrack, 0)
	for _, rec := range records {
		authors[rec.Key] = userID
		if rec.Kind == models.MediaKindAudio {
			music = append(music, models.AudioTrack{URL: rec.URL, Volume: musicVolume})
		}
	}

	return CompileInput{
		Media:    records,
		Authors:  authors,
		Tributes: tributes,
		Timeline: timeline,
		Music:    music,
	}, nil
}
