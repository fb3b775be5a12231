// Package invalidation propagates render cache invalidations, either
// in-process or across instances through a RabbitMQ fanout exchange.
package invalidation

import (
	"context"
	"fmt"
	"time"
)

// Message names the cache keys to drop. All drops every key.
type Message struct {
	Keys      []string  `json:"keys,omitempty"`
	All       bool      `json:"all,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Target is the cache a message is applied to.
type Target interface {
	Invalidate(ctx context.Context, keys ...string) error
	InvalidateAll(ctx context.Context) error
}

// Apply drops the keys named by msg from target.
func Apply(ctx context.Context, target Target, msg Message) error {
	if msg.All {
		if err := target.InvalidateAll(ctx); err != nil {
			return fmt.Errorf("apply invalidation: %w", err)
		}
		return nil
	}

	if err := target.Invalidate(ctx, msg.Keys...); err != nil {
		return fmt.Errorf("apply invalidation: %w", err)
	}
	return nil
}

// Local applies published messages to the local cache directly. It is used
// when no broker is configured.
type Local struct {
	target Target
}

// NewLocal creates an in-process invalidator.
func NewLocal(target Target) *Local {
	return &Local{target: target}
}

func (l *Local) Publish(ctx context.Context, msg Message) error {
	return Apply(ctx, l.target, msg)
}
