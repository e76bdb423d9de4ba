package publisher

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/btts/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultStream is the stream picks are appended to.
const DefaultStream = "picks.btts"

// LatestOnly keeps just the newest event on the stream: a hand-off to
// consumers rather than a history of past runs.
const LatestOnly = 1

// PicksEvent is one run's outcome as seen by downstream consumers.
type PicksEvent struct {
	RunID       string       `json:"run_id"`
	Date        string       `json:"date"`
	Profile     string       `json:"profile"`
	Candidates  int          `json:"candidates"`
	Qualified   int          `json:"qualified"`
	Picks       []model.Pick `json:"picks"`
	Text        string       `json:"text"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher from an existing client. An
// empty stream uses DefaultStream. maxLen > 0 trims the stream to at most that
// many entries on every add.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Stream returns the target stream name.
func (rsp *RedisStreamPublisher) Stream() string {
	return rsp.stream
}

// PublishPicks appends the event to the stream and returns the entry ID.
func (rsp *RedisStreamPublisher) PublishPicks(ctx context.Context, event PicksEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode picks event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: rsp.stream,
		Values: map[string]interface{}{
			"run_id":    event.RunID,
			"date":      event.Date,
			"picks":     len(event.Picks),
			"data":      string(data),
			"timestamp": event.GeneratedAt.Unix(),
		},
	}
	if rsp.maxLen > 0 {
		args.MaxLen = rsp.maxLen
	}

	id, err := rsp.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", rsp.stream, err)
	}
	return id, nil
}
