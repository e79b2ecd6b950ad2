package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher fans progress changes out over redis pub/sub. A nil client disables it.
type Publisher struct {
	redisClient *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redisClient: redisClient}
}

// Channel is the redis channel carrying progress updates for one project.
func Channel(projectID uuid.UUID) string {
	return fmt.Sprintf("project_progress:%s", projectID.String())
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.redisClient != nil
}

func (p *Publisher) Publish(ctx context.Context, res Result) error {
	if !p.Enabled() {
		return nil
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}

	return p.redisClient.Publish(ctx, Channel(res.ProjectID), payload).Err()
}

// Subscribe returns a confirmed subscription to the project's channel. Callers must Close it.
func (p *Publisher) Subscribe(ctx context.Context, projectID uuid.UUID) (*redis.PubSub, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("progress feed requires redis")
	}

	pubsub := p.redisClient.Subscribe(ctx, Channel(projectID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to progress channel: %w", err)
	}

	return pubsub, nil
}
