package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"memorial/internal/domain/models"
	"memorial/internal/storage"
)

const (
	tempPrefix  = ".put-"
	tempPattern = tempPrefix + "*"
)

// LocalFileStorage реализация ObjectStore для локальной файловой системы.
// Ключ объекта отображается в путь относительно baseDir.
// Метаданные объектов не сохраняются.
type LocalFileStorage struct {
	baseDir string // Базовый каталог для хранения (например: "./uploads")
	baseURL string // Базовый URL для доступа к файлам (например: "http://localhost:8080/uploads")
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalFileStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *LocalFileStorage) Put(ctx context.Context, in storage.PutInput) error {
	const op = "storage.filestorage.Put"

	if err := ctx.Err(); err != nil {
		return err
	}

	filePath, err := s.path(in.Key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return fmt.Errorf("%s: failed to create directories: %w", op, err)
		}
	}

	// Пишем в уникальный временный файл, чтобы перезапись была атомарной
	// и параллельные Put одного ключа не делили один путь
	dst, err := os.CreateTemp(filepath.Dir(filePath), tempPattern)
	if err != nil {
		return fmt.Errorf("%s: failed to create destination file: %w", op, err)
	}
	tmp := dst.Name()
	// CreateTemp создает файл с правами 0600, а каталог раздается как статика
	if err := dst.Chmod(0644); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan struct{})
	var copyErr error

	go func() {
		_, copyErr = io.Copy(dst, in.Body)
		close(done)
	}()

	select {
	case <-done:
		closeErr := dst.Close()
		if copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("%s: failed to copy file: %w", op, copyErr)
		}
	case <-ctx.Done():
		_ = dst.Close()
		_ = os.Remove(tmp)
		return ctx.Err()
	}

	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *LocalFileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.filestorage.Get"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.path(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

// Delete удаляет файл из хранилища
func (s *LocalFileStorage) Delete(ctx context.Context, key string) error {
	const op = "storage.filestorage.Delete"

	filePath, err := s.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *LocalFileStorage) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	const op = "storage.filestorage.List"

	out := make([]storage.Object, 0)

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		out = append(out, storage.Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
			ContentType:  models.ContentTypeByName(key),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out, nil
}

func (s *LocalFileStorage) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	const op = "storage.filestorage.ListPrefixes"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := s.path(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, prefix+e.Name()+"/")
		}
	}

	return out, nil
}

// PublicURL возвращает URL для доступа к файлу
func (s *LocalFileStorage) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// GetBaseDir возвращает каталог, который раздается как статика
func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}
