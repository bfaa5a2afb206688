package repository

import (
	"context"

	"github.com/google/uuid"
)

// ProcessTask asks a worker to transcode an uploaded original and extract
// its thumbnail and duration.
type ProcessTask struct {
	VideoID     uuid.UUID `json:"video_id"`
	OriginalKey string    `json:"original_key"`
	OutputKey   string    `json:"output_key"`
	RetryCount  int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishProcessTask is used by the API server after an upload completes.
	PublishProcessTask(ctx context.Context, task ProcessTask) error

	// ConsumeProcessTasks blocks and calls handler for each received task
	// until ctx is cancelled. Used by the worker.
	ConsumeProcessTasks(ctx context.Context, handler func(task ProcessTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
