package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/distillhq/distillery/internal/config"
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

// Pipeline tasks run without retries. A batch or fine-tuning job is
// remote provider state; re-running a failed task would create a second
// job instead of resuming the first.

func (c *Client) EnqueueBatchGenerate(payload BatchGeneratePayload) (string, error) {
	return c.enqueue(TypeBatchGenerate, payload, asynq.MaxRetry(0), asynq.Timeout(25*time.Hour))
}

func (c *Client) EnqueueFinetuneRun(payload FinetuneRunPayload) (string, error) {
	return c.enqueue(TypeFinetuneRun, payload, asynq.MaxRetry(0), asynq.Timeout(25*time.Hour))
}

func (c *Client) EnqueueEvalRun(payload EvalRunPayload) (string, error) {
	return c.enqueue(TypeEvalRun, payload, asynq.MaxRetry(0), asynq.Timeout(25*time.Hour))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return info.ID, nil
}
