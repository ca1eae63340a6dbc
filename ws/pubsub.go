package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"talentvault_backend/internal/logger"
)

const defaultRedisChannel = "talentvault:notifications:live"

// redisEnvelope wraps a router event so any instance can replay it into its
// local manager.
type redisEnvelope struct {
	Kind      string          `json:"kind"` // "industry" | "broadcast"
	Industry  *IndustryEvent  `json:"industry,omitempty"`
	Broadcast *BroadcastEvent `json:"broadcast,omitempty"`
	// TargetUserIDs travels outside BroadcastEvent because the event's
	// recipient list is routing metadata, never sent to clients.
	TargetUserIDs []string  `json:"target_user_ids,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}

// RedisBridge connects the local manager to a shared Redis Pub/Sub channel
// so live events reach connections held by other instances. Without it the
// service still works in single-instance mode.
type RedisBridge struct {
	client  *redis.Client
	channel string

	onIndustry  func(IndustryEvent)
	onBroadcast func(BroadcastEvent)
}

// NewRedisBridge builds a bridge. Call Run once the router has been
// attached via Router.WithBridge.
func NewRedisBridge(client *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &RedisBridge{client: client, channel: channel}
}

// Run subscribes and replays incoming envelopes into the local manager.
// It blocks until the context is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		logger.Error("ws: failed to subscribe to redis channel", "channel", b.channel, "error", err)
		return
	}
	logger.Info("ws: redis pubsub bridge running", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.replay([]byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) replay(payload []byte) {
	var env redisEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		logger.Error("ws: failed to decode redis envelope", "channel", b.channel, "error", err)
		return
	}

	switch {
	case env.Kind == "industry" && env.Industry != nil && b.onIndustry != nil:
		b.onIndustry(*env.Industry)
	case env.Kind == "broadcast" && env.Broadcast != nil && b.onBroadcast != nil:
		ev := *env.Broadcast
		ev.TargetUserIDs = env.TargetUserIDs
		b.onBroadcast(ev)
	}
}

// PublishIndustry sends an industry event over the shared channel.
func (b *RedisBridge) PublishIndustry(ev IndustryEvent) {
	b.publish(redisEnvelope{Kind: "industry", Industry: &ev, SentAt: time.Now().UTC()})
}

// PublishBroadcast sends a broadcast event over the shared channel.
func (b *RedisBridge) PublishBroadcast(ev BroadcastEvent) {
	targetIDs := ev.TargetUserIDs
	b.publish(redisEnvelope{Kind: "broadcast", Broadcast: &ev, TargetUserIDs: targetIDs, SentAt: time.Now().UTC()})
}

func (b *RedisBridge) publish(env redisEnvelope) {
	body, err := json.Marshal(env)
	if err != nil {
		logger.Error("ws: failed to encode redis envelope", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		logger.Error("ws: failed to publish redis message", "channel", b.channel, "error", err)
	}
}
