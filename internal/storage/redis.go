package storage

import (
	"context"
	"encoding/json"
	"strings"

	"echogo/backend/internal/config"
	"echogo/backend/internal/models"

	"go.uber.org/zap"
)

const (
	waveLimitPrefix = "wavelimit:"
	userChanPrefix  = "user:"
	onlinePrefix    = "online:"
)

// AllowWave enforces the wave-frequency threshold with a fixed window
// counter in Redis; the first wave in a window arms the TTL.
func (s *Service) AllowWave(ctx context.Context, userID string) (bool, error) {
	key := waveLimitPrefix + userID
	count, err := s.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.Redis.Expire(ctx, key, config.WaveRateLimitWindow).Err(); err != nil {
			return false, err
		}
	}
	return count <= config.WaveRateLimitMax, nil
}

// PublishEvent broadcasts an event on the account's channel. Every server
// instance subscribed to user:* forwards it to sockets it holds locally.
func (s *Service) PublishEvent(ctx context.Context, userID string, ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, userChanPrefix+userID, payload).Err()
}

// UserEvent is one fan-out message, addressed by account.
type UserEvent struct {
	UserID string
	Event  models.Event
}

// EventStream pattern-subscribes to every per-account channel and yields
// decoded events until ctx is cancelled.
func (s *Service) EventStream(ctx context.Context) <-chan UserEvent {
	out := make(chan UserEvent, 64)
	pubsub := s.Redis.PSubscribe(ctx, userChanPrefix+"*")

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.log.Warn("bad event payload", zap.Error(err))
					continue
				}
				out <- UserEvent{
					UserID: strings.TrimPrefix(msg.Channel, userChanPrefix),
					Event:  ev,
				}
			}
		}
	}()
	return out
}

// Presence: accounts with a live realtime connection. Used to skip push
// delivery for peers already reachable over the channel. Each account
// holds its own TTL'd key so a crashed instance can never strand anyone
// online; the hub refreshes the key while the connection lives.

func (s *Service) SetOnline(ctx context.Context, userID string) error {
	return s.Redis.Set(ctx, onlinePrefix+userID, "1", config.PresenceTTL).Err()
}

func (s *Service) SetOffline(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, onlinePrefix+userID).Err()
}

func (s *Service) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := s.Redis.Exists(ctx, onlinePrefix+userID).Result()
	return n == 1, err
}
