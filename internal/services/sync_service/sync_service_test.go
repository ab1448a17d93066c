package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	services "memorial/internal/services/sync_service"
	"memorial/internal/storage"
	"memorial/internal/storage/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDeleteFailed = errors.New("delete failed")

// failingDeleteStore отказывает в удалении объектов
type failingDeleteStore struct {
	*memstore.Store
}

func (f *failingDeleteStore) Delete(ctx context.Context, key string) error {
	return errDeleteFailed
}

func newService(store storage.ObjectStore) *services.SyncService {
	return services.NewSyncService(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
}

func putObject(t *testing.T, store storage.ObjectStore, key string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), storage.PutInput{Key: key, Body: strings.NewReader("data")}))
}

func TestSyncService_CaptionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(memstore.New("http://cdn"))

	captions := map[string]string{
		"users/sarah/images/a.jpg": "At the lake",
		"users/sarah/videos/b.mp4": "Birthday",
	}

	require.NoError(t, svc.SaveCaptions(ctx, "sarah", captions))

	loaded, err := svc.LoadCaptions(ctx, "sarah")
	require.NoError(t, err)
	require.NoError(t, svc.SaveCaptions(ctx, "sarah", loaded))

	again, err := svc.LoadCaptions(ctx, "sarah")
	require.NoError(t, err)
	assert.Equal(t, captions, again)
}

func TestSyncService_NewUser(t *testing.T) {
	ctx := context.Background()
	svc := newService(memstore.New("http://cdn"))

	captions, err := svc.LoadCaptions(ctx, "brand-new")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{}, captions)

	deleted, err := svc.LoadDeleted(ctx, "brand-new")
	require.NoError(t, err)
	assert.Equal(t, []string{}, deleted)
}

func TestSyncService_InvalidUser(t *testing.T) {
	svc := newService(memstore.New("http://cdn"))

	_, err := svc.LoadCaptions(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrInvalidUserID)
}

func TestSyncService_CorruptSidecar(t *testing.T) {
	ctx := context.Background()
	store := memstore.New("http://cdn")
	svc := newService(store)

	require.NoError(t, store.Put(ctx, storage.PutInput{Key: storage.CaptionsKey("sarah"), Body: strings.NewReader("{oops")}))

	_, err := svc.LoadCaptions(ctx, "sarah")
	assert.Error(t, err)
}

func TestMergeCaptions(t *testing.T) {
	remote := map[string]string{"a": "remote a", "b": "remote b"}
	local := map[string]string{"b": "local b", "c": "local c", "a": ""}

	merged := services.MergeCaptions(remote, local)

	assert.Equal(t, map[string]string{"a": "remote a", "b": "local b", "c": "local c"}, merged)
	assert.Equal(t, "remote b", remote["b"])
}

func TestSyncService_UpdateCaptions(t *testing.T) {
	ctx := context.Background()
	svc := newService(memstore.New("http://cdn"))

	require.NoError(t, svc.SaveCaptions(ctx, "sarah", map[string]string{"a": "one", "b": "two"}))

	merged, err := svc.UpdateCaptions(ctx, "sarah", map[string]string{"b": "TWO", "c": "three"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "one", "b": "TWO", "c": "three"}, merged)

	loaded, err := svc.LoadCaptions(ctx, "sarah")
	require.NoError(t, err)
	assert.Equal(t, merged, loaded)
}

func TestSyncService_HandleDelete(t *testing.T) {
	ctx := context.Background()
	store := memstore.New("http://cdn")
	svc := newService(store)

	key := storage.MediaKey("sarah", "images", "a.jpg")
	putObject(t, store, key)

	removed := false
	require.NoError(t, svc.HandleDelete(ctx, "sarah", key, func() { removed = true }))
	assert.True(t, removed)

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	deleted, err := svc.LoadDeleted(ctx, "sarah")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, deleted)

	// Повторное удаление не дублирует запись в журнале
	require.NoError(t, svc.HandleDelete(ctx, "sarah", key, nil))
	deleted, err = svc.LoadDeleted(ctx, "sarah")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, deleted)
}

func TestSyncService_HandleDeleteFailureLeavesLog(t *testing.T) {
	ctx := context.Background()
	store := &failingDeleteStore{Store: memstore.New("http://cdn")}
	svc := newService(store)

	key := storage.MediaKey("sarah", "images", "a.jpg")
	putObject(t, store, key)
	require.NoError(t, svc.SaveDeleted(ctx, "sarah", []string{"users/sarah/images/old.jpg"}))

	removed := false
	err := svc.HandleDelete(ctx, "sarah", key, func() { removed = true })
	require.ErrorIs(t, err, errDeleteFailed)
	assert.False(t, removed)

	deleted, err := svc.LoadDeleted(ctx, "sarah")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/sarah/images/old.jpg"}, deleted)

	_, err = store.Get(ctx, key)
	assert.NoError(t, err)
}

func TestSyncService_HandleDeleteForeignKey(t *testing.T) {
	ctx := context.Background()
	store := memstore.New("http://cdn")
	svc := newService(store)

	key := storage.MediaKey("bob", "images", "a.jpg")
	putObject(t, store, key)

	err := svc.HandleDelete(ctx, "sarah", key, nil)
	assert.ErrorIs(t, err, services.ErrForeignKey)

	err = svc.HandleDelete(ctx, "sarah", storage.CaptionsKey("sarah"), nil)
	assert.ErrorIs(t, err, services.ErrForeignKey)

	_, err = store.Get(ctx, key)
	assert.NoError(t, err)
}

func TestSyncService_ConcurrentDeletes(t *testing.T) {
	ctx := context.Background()
	store := memstore.New("http://cdn")
	svc := newService(store)

	const n = 20
	keys := make([]string, n)
	for i := range keys {
		keys[i] = storage.MediaKey("sarah", "images", fmt.Sprintf("%02d.jpg", i))
		putObject(t, store, keys[i])
	}

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			assert.NoError(t, svc.HandleDelete(ctx, "sarah", key, nil))
		}(key)
	}
	wg.Wait()

	deleted, err := svc.LoadDeleted(ctx, "sarah")
	require.NoError(t, err)
	assert.ElementsMatch(t, keys, deleted)
}
