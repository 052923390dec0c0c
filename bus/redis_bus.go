package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the number of retry attempts on a failed publish,
// mirroring the cloud-event adapters' own retry discipline.
const DefaultRetries = 3

// RedisConfig configures the Redis-backed lattice bus.
type RedisConfig struct {
	// URL is the Redis connection URL (required). Format:
	// redis://[:password@]host:port[/db]
	URL string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on publish failure.
	// NewRedisBus keeps a zero value as zero; cli/config fills in
	// DefaultRetries (3) when the YAML leaves it unset.
	Retries int
}

// RedisBus is a Bus backed by Redis PUBLISH/SUBSCRIBE. Each Subscribe
// call opens its own *redis.PubSub and pumps messages to handler on a
// dedicated goroutine until Unsubscribe is called.
type RedisBus struct {
	client  *goredis.Client
	timeout time.Duration
	retries int
}

// NewRedisBus creates a Redis-backed bus from cfg. Pass a
// miniredis-backed URL in tests to avoid a live Redis dependency.
func NewRedisBus(cfg RedisConfig) (*RedisBus, error) {
	if cfg.URL == "" {
		return nil, errors.New("bus: redis bus requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("bus: invalid redis URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("bus: retries must be >= 0, got %d", cfg.Retries)
	}
	return &RedisBus{
		client:  goredis.NewClient(opts),
		timeout: cfg.Timeout,
		retries: cfg.Retries,
	}, nil
}

// Publish implements Bus. Retries with exponential backoff on failure,
// the same shape as the cloud-event redis adapter.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	var lastErr error
	attempts := 1 + b.retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bus: context canceled: %w", err)
		}
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("bus: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, b.timeout)
		lastErr = b.client.Publish(publishCtx, topic, payload).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("bus: publish failed after %d attempts: %w", attempts, lastErr)
}

// Subscribe implements Bus.
func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("bus: subscribe to %s failed: %w", topic, err)
	}

	sub := &redisSubscription{pubsub: pubsub}
	go sub.pump(handler)
	return sub, nil
}

// Close releases the underlying Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	pubsub *goredis.PubSub
}

func (s *redisSubscription) pump(handler Handler) {
	ch := s.pubsub.Channel()
	for msg := range ch {
		handler(context.Background(), msg.Channel, []byte(msg.Payload))
	}
}

// Unsubscribe implements Subscription.
func (s *redisSubscription) Unsubscribe() error {
	return s.pubsub.Close()
}

var _ Bus = (*RedisBus)(nil)
