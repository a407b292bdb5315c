package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cbfeed/config"
	"cbfeed/pkg/coinbase"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("cbfeed/storage/redis")

// Sink appends messages to a Redis stream capped at roughly MaxLen entries.
type Sink struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewSink(ctx context.Context, cfg config.RedisConfig) (*Sink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &Sink{rdb: rdb, stream: cfg.Stream, maxLen: cfg.MaxLen}, nil
}

func (s *Sink) InsertOne(ctx context.Context, msg coinbase.Message) error {
	ctx, span := tracer.Start(ctx, "Redis.InsertOne")
	defer span.End()
	span.SetAttributes(attribute.String("redis.stream", s.stream))

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: streamValues(msg),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis xadd failed: %w", err)
	}
	return nil
}

// Len returns the current number of entries in the stream.
func (s *Sink) Len(ctx context.Context) (int64, error) {
	return s.rdb.XLen(ctx, s.stream).Result()
}

func (s *Sink) Close() error {
	return s.rdb.Close()
}

func streamValues(msg coinbase.Message) map[string]any {
	return map[string]any{
		"id":          uuid.NewString(),
		"type":        msg.Type(),
		"product_id":  msg.ProductID(),
		"received_at": strconv.FormatInt(msg.ReceivedAt.UnixMilli(), 10),
		"payload":     string(msg.Raw),
	}
}
