package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"baraholka/internal/service"
	"github.com/redis/go-redis/v9"
)

// RelayRepo is the pub/sub side of the realtime relay. Channels are not
// persisted anywhere: a subscription lives exactly as long as the
// websocket connection that holds it.
type RelayRepo struct {
	redis *redis.Client
}

func NewRelayRepo(redis *redis.Client) *RelayRepo {
	return &RelayRepo{
		redis: redis,
	}
}

// Subscribe opens a pub/sub subscription on the client's personal channel.
// Chat channels are joined later through the same subscription.
func (rr *RelayRepo) Subscribe(ctx context.Context, telegramID string) *redis.PubSub {
	return rr.redis.Subscribe(ctx, service.PersonalChannel(telegramID))
}

func (rr *RelayRepo) Publish(ctx context.Context, channel string, event *service.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return rr.redis.Publish(ctx, channel, data).Err()
}
