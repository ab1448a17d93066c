package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memorial/internal/domain/models"
	"memorial/internal/lib/jwt"
	"memorial/internal/lib/logger/sl"
	"memorial/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Auth struct {
	log         *slog.Logger
	accProvider AccountProvider
	secret      string
	tokenTTL    time.Duration
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.3 --all
type AccountProvider interface {
	Account(ctx context.Context, email string) (models.Account, error)
}

func New(log *slog.Logger, accProvider AccountProvider, secret string, tokenTTL time.Duration) *Auth {
	return &Auth{
		log:         log,
		accProvider: accProvider,
		secret:      secret,
		tokenTTL:    tokenTTL,
	}
}

// Login проверяет пароль и возвращает пользователя сессии вместе с JWT.
// ID пользователя совпадает с именем его пространства в хранилище.
func (a *Auth) Login(ctx context.Context, email, password string) (models.SessionUser, string, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	acc, err := a.accProvider.Account(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("account not found")

			return models.SessionUser{}, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get account", sl.Err(err))

		return models.SessionUser{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return models.SessionUser{}, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user := models.SessionUser{
		ID:    storage.SanitizeUserID(acc.Email),
		Email: acc.Email,
		Name:  acc.Name,
		Role:  acc.Role,
	}

	token, err := jwt.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return models.SessionUser{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return user, token, nil
}

// Verify разбирает токен, выданный Login
func (a *Auth) Verify(token string) (models.SessionUser, error) {
	const op = "auth.Verify"

	user, err := jwt.ParseToken(token, a.secret)
	if err != nil {
		return models.SessionUser{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// HashPassword возвращает bcrypt-хеш для записи в конфигурацию
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
