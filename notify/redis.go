package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier broadcasts events across processes and hosts over a Redis
// pub/sub channel.
type RedisNotifier struct {
	rdb     *goredis.Client
	channel string
	logger  *zap.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisNotifier connects and pings Redis before returning.
func NewRedisNotifier(opts RedisOptions, logger *zap.Logger) (*RedisNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	logger.Info("redis notifier connected", zap.String("addr", opts.Addr), zap.String("channel", opts.Channel))

	return &RedisNotifier{rdb: rdb, channel: opts.Channel, logger: logger}, nil
}

func (r *RedisNotifier) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event to %s: %w", r.channel, err)
	}
	return nil
}

func (r *RedisNotifier) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	out := make(chan Event, defaultBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Debug("ignoring malformed event", zap.String("channel", r.channel), zap.Error(err))
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisNotifier) Close() error {
	return r.rdb.Close()
}
