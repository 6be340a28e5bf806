package idempotency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

// значение ключа, пока первый запрос еще выполняется
const inProgress = "in_progress"

// ErrInProgress - запрос с тем же ключом еще не завершился
var ErrInProgress = errors.New("request with the same idempotency key is in progress")

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Store хранит соответствие ключ идемпотентности -> id созданного заказа
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func redisKey(userID int64, key string) string {
	return fmt.Sprintf("idempotency:checkout:%d:%s", userID, key)
}

// Reserve занимает ключ. Если ключ уже завершен, возвращает id заказа и reserved=false.
// Если первый запрос еще выполняется - ErrInProgress
func (s *Store) Reserve(ctx context.Context, userID int64, key string) (orderID int64, reserved bool, err error) {
	k := redisKey(userID, key)

	ok, err := s.client.SetNX(ctx, k, inProgress, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("idempotency.Reserve: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// ключ истек между SetNX и Get
			return s.Reserve(ctx, userID, key)
		}
		return 0, false, fmt.Errorf("idempotency.Reserve: %w", err)
	}
	if val == inProgress {
		return 0, false, ErrInProgress
	}

	orderID, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency.Reserve: corrupted value %q: %w", val, err)
	}
	return orderID, false, nil
}

// Complete сохраняет id заказа под ключом
func (s *Store) Complete(ctx context.Context, userID int64, key string, orderID int64) error {
	if err := s.client.Set(ctx, redisKey(userID, key), strconv.FormatInt(orderID, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency.Complete: %w", err)
	}
	return nil
}

// Release освобождает ключ после неудачного запроса, чтобы клиент мог повторить
func (s *Store) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, redisKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency.Release: %w", err)
	}
	return nil
}
