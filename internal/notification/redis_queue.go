package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue - очередь на списке redis: LPUSH на публикации, BRPOP на чтении
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewRedisQueue(client *redis.Client, key string, pollTimeout time.Duration) *RedisQueue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, pollTimeout: pollTimeout}
}

func (q *RedisQueue) Publish(ctx context.Context, job Job) error {
	data, err := job.Encode()
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis queue publish: %w", err)
	}
	return nil
}

// Next ждет задачу не дольше pollTimeout, по таймауту возвращает ErrNoJob
func (q *RedisQueue) Next(ctx context.Context) (Job, error) {
	res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrNoJob
		}
		return Job{}, fmt.Errorf("redis queue pop: %w", err)
	}
	// BRPOP возвращает пару [key, value]
	if len(res) != 2 {
		return Job{}, fmt.Errorf("redis queue pop: unexpected reply %v", res)
	}
	return DecodeJob([]byte(res[1]))
}
