package repo

import (
	"context"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// InboxRepo is the inbound action queue interface.
type InboxRepo interface {
	// Enqueue appends a pending inbound action.
	Enqueue(ctx context.Context, discordUserID uint64, action, payload string) error

	// ListPending lists pending items in ascending id order.
	ListPending(ctx context.Context, limit int) ([]*domain.InboxItem, error)

	// Claim transitions an item pending -> processing. It returns false
	// when another processor already claimed the item.
	Claim(ctx context.Context, id int64) (bool, error)

	// MarkDone transitions an item to its terminal state with an outcome
	// status and result text.
	MarkDone(ctx context.Context, id int64, status, result string) error
}

// OutboxRepo is the outbound domain event queue interface.
type OutboxRepo interface {
	// Enqueue appends a non-dispatched outbound event.
	Enqueue(ctx context.Context, eventType, payload string) error

	// ListPending lists non-dispatched items in ascending id order.
	ListPending(ctx context.Context, limit int) ([]*domain.OutboxItem, error)

	// MarkDispatched flips the dispatched flag. Monotonic.
	MarkDispatched(ctx context.Context, id int64) error
}
