// Package bus provides the message-bus dispatch strategy: capability calls
// are serialized into envelopes and exchanged over Redis pub/sub channels.
// A request envelope carries a correlation id, the operation name, and the
// request payload; replies come back on a per-call reply channel keyed by
// that id. The package also ships the server side: a Listener that
// subscribes to the request channel and dispatches into a local handler.
package bus

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RequestChannel is where all tasks capability requests are published.
const RequestChannel = "taskgate:tasks:requests"

// ReplyChannel returns the per-call reply channel for a correlation id.
func ReplyChannel(id string) string {
	return "taskgate:tasks:reply:" + id
}

// PubSub is the transport the strategy runs over. Production uses Redis;
// tests substitute an in-memory fake so correlation and timeout logic can
// be exercised without a broker.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Ping(ctx context.Context) error
}

// Subscription is a live channel subscription. Messages is closed when the
// subscription ends.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type redisPubSub struct {
	rdb *redis.Client
}

// NewRedisPubSub wraps a Redis client as the strategy transport.
func NewRedisPubSub(rdb *redis.Client) PubSub {
	return &redisPubSub{rdb: rdb}
}

func (r *redisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.rdb.Publish(ctx, channel, payload).Err()
}

func (r *redisPubSub) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := r.rdb.Subscribe(ctx, channel)
	// Confirm the subscription before the caller publishes anything that
	// expects a reply on this channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			out <- []byte(msg.Payload)
		}
	}()
	return &redisSubscription{ps: ps, out: out}, nil
}

func (r *redisPubSub) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *redisSubscription) Messages() <-chan []byte { return s.out }
func (s *redisSubscription) Close() error            { return s.ps.Close() }
