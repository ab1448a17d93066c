package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"memorial/internal/domain/models"
	"memorial/internal/lib/logger/sl"
)

var ErrInvalidTribute = errors.New("name and memory are required")

type TributeRepository interface {
	SaveTribute(ctx context.Context, tribute models.Tribute) error
	ListTributes(ctx context.Context) ([]models.Tribute, error)
	ListTimeline(ctx context.Context) ([]models.TimelineEvent, error)
}

type TributeService struct {
	log  *slog.Logger
	repo TributeRepository
}

func NewTributeService(log *slog.Logger, repo TributeRepository) *TributeService {
	return &TributeService{
		log:  log,
		repo: repo,
	}
}

func (s *TributeService) AddTribute(ctx context.Context, name, relationship, memory string) (models.Tribute, error) {
	const op = "tribute_service.AddTribute"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", name),
	)

	name = strings.TrimSpace(name)
	memory = strings.TrimSpace(memory)
	if name == "" || memory == "" {
		return models.Tribute{}, fmt.Errorf("%s: %w", op, ErrInvalidTribute)
	}

	tribute := models.NewTribute(name, strings.TrimSpace(relationship), memory)

	if err := s.repo.SaveTribute(ctx, *tribute); err != nil {
		log.Error("failed to save tribute", sl.Err(err))

		return models.Tribute{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tribute added", slog.String("id", tribute.ID.String()))

	return *tribute, nil
}

func (s *TributeService) ListTributes(ctx context.Context) ([]models.Tribute, error) {
	const op = "tribute_service.ListTributes"

	tributes, err := s.repo.ListTributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tributes, nil
}

func (s *TributeService) ListTimeline(ctx context.Context) ([]models.TimelineEvent, error) {
	const op = "tribute_service.ListTimeline"

	events, err := s.repo.ListTimeline(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
