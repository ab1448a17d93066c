package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"memorial/internal/lib/logger/sl"
	"memorial/internal/storage"
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrForeignKey    = errors.New("key is outside of the user namespace")
)

// SyncService хранит подписи и журнал удалений пользователя в служебных
// JSON-документах рядом с медиа. Документы перезаписываются целиком.
type SyncService struct {
	log   *slog.Logger
	store storage.ObjectStore
	locks *keyedMutex
}

func NewSyncService(log *slog.Logger, store storage.ObjectStore) *SyncService {
	return &SyncService{
		log:   log,
		store: store,
		locks: newKeyedMutex(),
	}
}

// LoadCaptions возвращает подписи пользователя; отсутствие документа дает пустую карту.
func (s *SyncService) LoadCaptions(ctx context.Context, userID string) (map[string]string, error) {
	const op = "sync_service.LoadCaptions"

	if err := checkUserID(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	captions := make(map[string]string)
	if err := s.getJSON(ctx, storage.CaptionsKey(userID), &captions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// "null" в документе
	if captions == nil {
		captions = make(map[string]string)
	}

	return captions, nil
}

func (s *SyncService) SaveCaptions(ctx context.Context, userID string, captions map[string]string) error {
	const op = "sync_service.SaveCaptions"

	if err := checkUserID(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if captions == nil {
		captions = map[string]string{}
	}

	if err := s.putJSON(ctx, storage.CaptionsKey(userID), captions); err != nil {
		s.log.Error("failed to save captions",
			slog.String("op", op),
			slog.String("user_id", userID),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SyncService) LoadDeleted(ctx context.Context, userID string) ([]string, error) {
	const op = "sync_service.LoadDeleted"

	if err := checkUserID(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deleted := make([]string, 0)
	if err := s.getJSON(ctx, storage.DeletedKey(userID), &deleted); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if deleted == nil {
		deleted = make([]string, 0)
	}

	return deleted, nil
}

func (s *SyncService) SaveDeleted(ctx context.Context, userID string, keys []string) error {
	const op = "sync_service.SaveDeleted"

	if err := checkUserID(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if keys == nil {
		keys = []string{}
	}

	if err := s.putJSON(ctx, storage.DeletedKey(userID), keys); err != nil {
		s.log.Error("failed to save deletion log",
			slog.String("op", op),
			slog.String("user_id", userID),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MergeCaptions накладывает local поверх remote. Пустые локальные значения
// не затирают удаленные.
func MergeCaptions(remote, local map[string]string) map[string]string {
	merged := make(map[string]string, len(remote)+len(local))
	for k, v := range remote {
		merged[k] = v
	}
	for k, v := range local {
		if v == "" {
			continue
		}
		merged[k] = v
	}
	return merged
}

// UpdateCaptions читает документ, накладывает local и записывает результат.
func (s *SyncService) UpdateCaptions(ctx context.Context, userID string, local map[string]string) (map[string]string, error) {
	const op = "sync_service.UpdateCaptions"

	unlock := s.locks.Lock(storage.SanitizeUserID(userID))
	defer unlock()

	remote, err := s.LoadCaptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	merged := MergeCaptions(remote, local)
	if err := s.SaveCaptions(ctx, userID, merged); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return merged, nil
}

// HandleDelete удаляет объект, дописывает ключ в журнал удалений и только
// после этого вызывает onRemoved. Если удаление объекта не удалось, журнал
// не меняется.
func (s *SyncService) HandleDelete(ctx context.Context, userID, key string, onRemoved func()) error {
	const op = "sync_service.HandleDelete"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("key", key),
	)

	if err := checkUserID(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !storage.OwnedBy(key, userID) || storage.IsSidecar(key) {
		return fmt.Errorf("%s: %w", op, ErrForeignKey)
	}

	unlock := s.locks.Lock(storage.SanitizeUserID(userID))
	defer unlock()

	if err := s.store.Delete(ctx, key); err != nil {
		log.Error("failed to delete object", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.LoadDeleted(ctx, userID)
	if err != nil {
		log.Error("failed to read deletion log", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if !contains(deleted, key) {
		deleted = append(deleted, key)
	}

	if err := s.SaveDeleted(ctx, userID, deleted); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("object deleted")

	if onRemoved != nil {
		onRemoved()
	}

	return nil
}

func (s *SyncService) getJSON(ctx context.Context, key string, dst any) error {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

func (s *SyncService) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return s.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
}

func checkUserID(userID string) error {
	if storage.SanitizeUserID(userID) == "" {
		return ErrInvalidUserID
	}
	return nil
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// keyedMutex - по одному мьютексу на пространство пользователя
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock захватывает мьютекс ключа и возвращает функцию освобождения.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
