package notify

import (
	"context"
	"fmt"
	"strings"

	"autobid/utils"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "vehicle:"

// ChannelFor is the redis pub/sub channel carrying a vehicle's events
func ChannelFor(vehicleID string) string {
	return channelPrefix + vehicleID
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes events to redis so every instance's Hub can deliver them
type RedisSink struct {
	client redisPublisher
}

func NewRedisSink(client redisPublisher) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Publish(ctx context.Context, vehicleID string, event EventType, payload any) error {
	msg, err := Encode(vehicleID, event, payload)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, ChannelFor(vehicleID), msg).Err(); err != nil {
		return fmt.Errorf("notify: redis publish %s for vehicle %s: %w", event, vehicleID, err)
	}
	return nil
}

// RedisRelay forwards events published on redis to the local Hub
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisRelay(client *redis.Client, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, hub: hub}
}

// Run subscribes to every vehicle channel and relays messages until ctx is done
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("notify: redis subscribe: %w", err)
	}
	utils.Info("redis relay subscribed", map[string]any{"pattern": channelPrefix + "*"})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *RedisRelay) handle(msg *redis.Message) {
	vehicleID, ok := strings.CutPrefix(msg.Channel, channelPrefix)
	if !ok || vehicleID == "" {
		return
	}
	r.hub.Broadcast(vehicleID, []byte(msg.Payload))
}
