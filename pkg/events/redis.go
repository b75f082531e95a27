package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisSink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Stream is the stream key events are appended to.
	Stream string

	// MaxLen caps the stream approximately. Zero keeps everything.
	MaxLen int64
}

// DefaultStream is used when RedisConfig.Stream is empty.
const DefaultStream = "snaplink:events"

// RedisSink appends events to a Redis stream with XADD. Each entry carries
// the event type, block id and the full JSON document.
type RedisSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisSink connects to Redis and verifies the connection with PING.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return NewRedisSinkFromClient(client, cfg.Stream, cfg.MaxLen), nil
}

// NewRedisSinkFromClient wraps an existing client.
func NewRedisSinkFromClient(client redis.UniversalClient, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Stream returns the stream key.
func (s *RedisSink) Stream() string { return s.stream }

// Write pipelines one XADD per event.
func (s *RedisSink) Write(ctx context.Context, events []Event) error {
	pipe := s.client.Pipeline()
	for _, e := range events {
		values, err := streamValues(e)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: s.maxLen > 0,
			Values: values,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		var ne net.Error
		if errors.As(err, &ne) {
			return Retryable(err)
		}
		return err
	}
	return nil
}

// Close closes the client.
func (s *RedisSink) Close() error { return s.client.Close() }

func streamValues(e Event) (map[string]any, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  string(e.Type),
		"block": e.BlockID,
		"event": string(doc),
	}, nil
}

var _ Sink = (*RedisSink)(nil)
