package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueTenantCopy queues a copy for the background worker. No retries:
// re-running a partially conflicting copy under the suffix strategy would
// mint duplicate names, so a failed copy surfaces instead of repeating.
func (c *Client) EnqueueTenantCopy(payload TenantCopyPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeTenantCopy, data)
	info, err := c.client.Enqueue(task, asynq.MaxRetry(0), asynq.Timeout(5*time.Minute))
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeTenantCopy, err)
	}
	return info.ID, nil
}
