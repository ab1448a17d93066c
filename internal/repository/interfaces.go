package repository

import (
	"context"

	"memorial/internal/domain/models"
)

// SlideshowCache хранит последнюю собранную конфигурацию слайдшоу пользователя.
// Load возвращает storage.ErrNotFound при промахе.
type SlideshowCache interface {
	Save(ctx context.Context, userID string, cached models.CachedSlideshow) error
	Load(ctx context.Context, userID string) (models.CachedSlideshow, error)
	Invalidate(ctx context.Context, userID string) error
}

// TributeRepository - гостевая книга и хронология
type TributeRepository interface {
	SaveTribute(ctx context.Context, tribute models.Tribute) error
	ListTributes(ctx context.Context) ([]models.Tribute, error)
	ListTimeline(ctx context.Context) ([]models.TimelineEvent, error)
}
