package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/soscomida/soscomida/internal/domain"
)

// SignalService relays committed events over redis pub/sub so every
// instance can feed its realtime subscribers.
type SignalService struct {
	rdb     *redis.Client
	channel string
}

func NewSignalService(redisClient *redis.Client, channel string) *SignalService {
	return &SignalService{
		rdb:     redisClient,
		channel: channel,
	}
}

func (s *SignalService) Name() string { return "signal" }

func (s *SignalService) Handle(ctx context.Context, event domain.Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, jsonstr).Err()
}

// Realtime forwards published events to the returned channel until ctx is
// done. Malformed payloads are skipped.
func (s *SignalService) Realtime(ctx context.Context) <-chan domain.Event {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	out := make(chan domain.Event)

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
				var event domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(ctx, "dropping malformed event",
						slog.String("module", "signal"),
						slog.String("error", err.Error()),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
