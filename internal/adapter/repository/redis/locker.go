package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// ErrLockHeld is returned when an account lock could not be taken within the wait budget.
var ErrLockHeld = errors.New("account lock is held by another transfer")

// AccountLocker implements usecase.AccountLocker with one SET NX key per account.
// Keys are taken in the order given and released in reverse.
type AccountLocker struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	wait     time.Duration
	newToken func() string
}

// NewAccountLocker creates an AccountLocker. ttl bounds how long a crashed holder
// keeps a key; wait bounds how long LockAccounts retries a held key.
func NewAccountLocker(client redis.UniversalClient, ttl, wait time.Duration) *AccountLocker {
	return &AccountLocker{
		client:   client,
		prefix:   "lock:account:",
		ttl:      ttl,
		wait:     wait,
		newToken: uuid.NewString,
	}
}

// LockAccounts takes a lock per id. On failure the locks already taken are released.
func (l *AccountLocker) LockAccounts(ctx context.Context, ids []string) (func(context.Context) error, error) {
	token := l.newToken()
	acquired := make([]string, 0, len(ids))

	release := func(ctx context.Context) error {
		var errs []error
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := l.unlock(ctx, acquired[i], token); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, id := range ids {
		key := l.prefix + id
		if err := l.acquire(ctx, key, token); err != nil {
			_ = release(context.WithoutCancel(ctx))
			return nil, err
		}
		acquired = append(acquired, key)
	}

	return release, nil
}

func (l *AccountLocker) acquire(ctx context.Context, key, token string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = l.wait

	op := func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLockHeld, key)
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

func (l *AccountLocker) unlock(ctx context.Context, key, token string) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{key}, token).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock %s: lock expired or taken over", key)
	}
	return nil
}
