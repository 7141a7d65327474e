package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisEventPublisher delivers notification payloads to the message bus.
// Every routing key maps to a redis pub/sub channel; the payload travels as
// JSON with an event id and publish timestamp added for consumers.
type RedisEventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error {
	message := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		message[k] = v
	}
	message["event_id"] = uuid.NewString()
	message["published_at"] = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, routingKey, data).Err()
}
