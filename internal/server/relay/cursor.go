package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/redis/go-redis/v9"
)

// Cursor is the position of the last acknowledged event.
type Cursor struct {
	Block    uint64
	LogIndex uint
}

func Position(lg types.Log) Cursor {
	return Cursor{Block: lg.BlockNumber, LogIndex: lg.Index}
}

func (c Cursor) After(o Cursor) bool {
	return c.Block > o.Block || (c.Block == o.Block && c.LogIndex > o.LogIndex)
}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Block, c.LogIndex)
}

func ParseCursor(s string) (Cursor, error) {
	block, index, ok := strings.Cut(s, ":")
	if !ok {
		return Cursor{}, fmt.Errorf("malformed cursor %q", s)
	}
	b, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	i, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	return Cursor{Block: b, LogIndex: uint(i)}, nil
}

// CursorStore persists the relay position across restarts.
type CursorStore interface {
	// Load returns ok=false when nothing has been acknowledged yet.
	Load(ctx context.Context) (c Cursor, ok bool, err error)
	Save(ctx context.Context, c Cursor) error
}

type kvClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCursorStore keeps the cursor under a single key.
type RedisCursorStore struct {
	client kvClient
	key    string
}

func NewRedisCursorStore(c kvClient, key string) *RedisCursorStore {
	return &RedisCursorStore{client: c, key: key}
}

func (s *RedisCursorStore) Load(ctx context.Context) (Cursor, bool, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return Cursor{}, false, nil
	}
	if err != nil {
		return Cursor{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	c, err := ParseCursor(v)
	if err != nil {
		return Cursor{}, false, err
	}
	return c, true, nil
}

func (s *RedisCursorStore) Save(ctx context.Context, c Cursor) error {
	if err := s.client.Set(ctx, s.key, c.String(), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
