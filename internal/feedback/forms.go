package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// FormsKey is the Redis hash holding event id -> form id.
const FormsKey = "eventhub:feedback:forms"

// RedisForms stores form links in a Redis hash so they survive restarts and
// are shared between API instances.
type RedisForms struct {
	client *redis.Client
	key    string
}

var _ FormRegistry = (*RedisForms)(nil)

// NewRedisForms uses FormsKey when key is empty.
func NewRedisForms(client *redis.Client, key string) *RedisForms {
	if key == "" {
		key = FormsKey
	}
	return &RedisForms{client: client, key: key}
}

func (r *RedisForms) SetForm(ctx context.Context, eventID, formID string) error {
	if err := r.client.HSet(ctx, r.key, eventID, formID).Err(); err != nil {
		return fmt.Errorf("store feedback form: %w", err)
	}
	return nil
}

func (r *RedisForms) Form(ctx context.Context, eventID string) (string, error) {
	formID, err := r.client.HGet(ctx, r.key, eventID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load feedback form: %w", err)
	}
	return formID, nil
}
