package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memorial/internal/storage"

	"github.com/sony/gobreaker/v2"
)

var ErrUnavailable = errors.New("object store unavailable")

type Settings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Store защищает ObjectStore автоматическим выключателем: после серии
// ошибок бэкенда вызовы сразу завершаются с ErrUnavailable.
// ErrNotFound не считается сбоем.
type Store struct {
	next storage.ObjectStore
	cb   *gobreaker.CircuitBreaker[any]
}

func New(log *slog.Logger, next storage.ObjectStore, cfg Settings) *Store {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("object store breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrNotFound) || errors.Is(err, context.Canceled)
		},
	}

	return &Store{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (s *Store) State() string {
	return s.cb.State().String()
}

func (s *Store) execute(fn func() (any, error)) (any, error) {
	res, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res, err
}

func (s *Store) Put(ctx context.Context, in storage.PutInput) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.next.Put(ctx, in)
	})
	return err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.execute(func() (any, error) {
		return s.next.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	data, _ := res.([]byte)
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	res, err := s.execute(func() (any, error) {
		return s.next.List(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	objs, _ := res.([]storage.Object)
	return objs, nil
}

func (s *Store) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	res, err := s.execute(func() (any, error) {
		return s.next.ListPrefixes(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	prefixes, _ := res.([]string)
	return prefixes, nil
}

func (s *Store) PublicURL(key string) string {
	return s.next.PublicURL(key)
}
