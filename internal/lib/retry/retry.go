package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy задает ограниченный экспоненциальный повтор: Attempts попыток,
// паузы BaseDelay, 2*BaseDelay, 4*BaseDelay ...
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

var DefaultPolicy = Policy{Attempts: 3, BaseDelay: time.Second}

// ExhaustedError возвращается, когда все попытки исчерпаны.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Permanent помечает ошибку как неповторяемую.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do выполняет op, пока она не завершится успешно, не вернет Permanent-ошибку
// или не закончатся попытки. notify вызывается перед каждой паузой.
func Do(ctx context.Context, p Policy, op func(attempt int) error, notify func(attempt int, err error, wait time.Duration)) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.BaseDelay << uint(p.Attempts)
	b.MaxElapsedTime = 0

	attempt := 0
	var last error

	operation := func() error {
		attempt++
		err := op(attempt)
		if err != nil {
			last = err
		}
		return err
	}

	onRetry := func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.Attempts-1)), ctx)

	err := backoff.RetryNotify(operation, policy, onRetry)
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return &ExhaustedError{Attempts: attempt, Last: last}
}
