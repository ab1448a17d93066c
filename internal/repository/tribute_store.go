package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"memorial/internal/domain/models"
	"memorial/internal/storage"
)

// ObjectTributeRepo хранит гостевую книгу и хронологию JSON-документами
// в том же объектном хранилище, что и медиа.
type ObjectTributeRepo struct {
	store storage.ObjectStore
	mu    sync.Mutex
}

func NewObjectTributeRepo(store storage.ObjectStore) *ObjectTributeRepo {
	return &ObjectTributeRepo{store: store}
}

func (r *ObjectTributeRepo) SaveTribute(ctx context.Context, tribute models.Tribute) error {
	const op = "repository.ObjectTributeRepo.SaveTribute"

	r.mu.Lock()
	defer r.mu.Unlock()

	tributes, err := r.ListTributes(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tributes = append(tributes, tribute)
	if err := putJSON(ctx, r.store, storage.TributesKey, tributes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ObjectTributeRepo) ListTributes(ctx context.Context) ([]models.Tribute, error) {
	const op = "repository.ObjectTributeRepo.ListTributes"

	tributes := make([]models.Tribute, 0)
	if err := getJSON(ctx, r.store, storage.TributesKey, &tributes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tributes, nil
}

func (r *ObjectTributeRepo) ListTimeline(ctx context.Context) ([]models.TimelineEvent, error) {
	const op = "repository.ObjectTributeRepo.ListTimeline"

	events := make([]models.TimelineEvent, 0)
	if err := getJSON(ctx, r.store, storage.TimelineKey, &events); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// getJSON читает документ; отсутствующий документ оставляет dst без изменений.
func getJSON(ctx context.Context, store storage.ObjectStore, key string, dst any) error {
	data, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dst)
}

func putJSON(ctx context.Context, store storage.ObjectStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
}
