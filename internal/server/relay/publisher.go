package relay

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen bounds the outbound stream; trimming is approximate.
const DefaultStreamMaxLen = 100_000

type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisPublisher appends messages to a Redis stream. Each entry carries a
// payload field and a msg_id consumers can use to drop replays.
type RedisPublisher struct {
	client streamClient
	stream string
	maxLen int64
}

func NewRedisPublisher(c streamClient, stream string) *RedisPublisher {
	return &RedisPublisher{client: c, stream: stream, maxLen: DefaultStreamMaxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, payload []byte) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"msg_id":  uuid.NewString(),
			"payload": string(payload),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("redis xadd %s: %w", p.stream, err)
	}
	return id, nil
}
