package usecase

import (
	"context"

	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// EventEmitter receives a mutation event after the store write commits.
// In the API it is the invalidation dispatcher; in the worker it is the bus.
type EventEmitter interface {
	Emit(ctx context.Context, e invalidation.Event) error
}
