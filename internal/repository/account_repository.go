package repository

import (
	"context"
	"fmt"
	"strings"

	"memorial/internal/domain/models"
	"memorial/internal/storage"
)

// AccountRepo - учетные записи, заданные в конфигурации
type AccountRepo struct {
	accounts map[string]models.Account
}

func NewAccountRepo(accounts []models.Account) *AccountRepo {
	m := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		if a.Role == "" {
			a.Role = models.RoleUser
		}
		m[strings.ToLower(a.Email)] = a
	}
	return &AccountRepo{accounts: m}
}

func (r *AccountRepo) Account(ctx context.Context, email string) (models.Account, error) {
	const op = "repository.AccountRepo.Account"

	a, ok := r.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.Account{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return a, nil
}
