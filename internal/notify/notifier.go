package notify

import (
	"context"
	"time"
)

// Confirmation describes a booked appointment for outbound notification.
type Confirmation struct {
	Utterance string
	StartTime time.Time
	EndTime   time.Time
	EventLink string
}

// Notifier delivers booking confirmations through one channel.
type Notifier interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, conf Confirmation) error
}
