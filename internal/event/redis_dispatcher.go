package event

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classpulse/classpulse-backend/internal/config"
)

// RedisDispatcher publishes events on the per-poll Redis PubSub channel.
// Redis preserves publish order per channel, so subscribers observe events in
// commit order. Publishing is best effort: the mutation is already committed,
// so a broadcast failure is logged and dropped rather than surfaced.
type RedisDispatcher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisDispatcher creates a new RedisDispatcher.
func NewRedisDispatcher(rdb *redis.Client, log zerolog.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		rdb: rdb,
		log: log.With().Str("component", "event_dispatcher").Logger(),
	}
}

// Dispatch serializes the event and publishes it to poll:{id}:events.
func (d *RedisDispatcher) Dispatch(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		d.log.Error().Err(err).Str("event", string(e.Name)).Msg("Marshal event failed")
		return
	}

	channel := config.ChannelKey.PollEventsChannel(e.PollID)
	if err := d.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		d.log.Error().Err(err).
			Str("event", string(e.Name)).
			Str("poll_id", e.PollID).
			Msg("Publish event failed")
	}
}
