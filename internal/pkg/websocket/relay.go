package websocket

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/pkg/notify"
)

// RelayRedis forwards grade events published on the student notification
// channels to the hub until ctx ends. With several app instances behind a
// load balancer this is how an event reaches the instance holding the socket.
func RelayRedis(ctx context.Context, client *redis.Client, hub *Hub, logger zerolog.Logger) error {
	sub := client.PSubscribe(ctx, notify.ChannelPattern)
	defer sub.Close()

	// Wait for confirmation that the subscription is created
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info().Str("pattern", notify.ChannelPattern).Msg("Relaying grade events to WebSocket clients")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			studentID, err := notify.StudentIDFromChannel(msg.Channel)
			if err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("Ignoring message on unexpected channel")
				continue
			}
			if err := hub.Publish(ctx, studentID, []byte(msg.Payload)); err != nil {
				return nil
			}
		}
	}
}
