package redis

import (
	redis_models "CodeCollab/models/redis"
	redis_utils "CodeCollab/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Relay forwards broadcasts between server instances through Redis pub/sub.
// Messages published by this instance are tagged with its origin id and
// skipped when they come back.
type Relay struct {
	rc     *RedisClient
	origin string
}

func NewRelay(rc *RedisClient, origin string) *Relay {
	return &Relay{rc: rc, origin: origin}
}

func (r *Relay) Publish(ctx context.Context, channel string, payload []byte) error {
	data, err := json.Marshal(redis_models.RelayEnvelope{
		Origin:  r.origin,
		Channel: channel,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("error marshaling relay envelope: %v", err)
	}
	return r.rc.client.Publish(ctx, redis_utils.RelayChannel, data).Err()
}

// Subscribe blocks delivering remote broadcasts until ctx is done
func (r *Relay) Subscribe(ctx context.Context, deliver func(channel string, payload []byte)) error {
	pubsub := r.rc.client.Subscribe(ctx, redis_utils.RelayChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("error subscribing to relay channel: %v", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env redis_models.RelayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[RELAY-ERROR] Discarding malformed envelope: %v", err)
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			deliver(env.Channel, env.Payload)
		}
	}
}
