package port

import (
	"context"

	"github.com/rl1809/order-console/internal/core/domain"
)

type PushDialer interface {
	// Dial opens one push connection for the given scope and user
	Dial(ctx context.Context, scope domain.Scope, username string) (Subscription, error)
}

type Subscription interface {
	// Messages is closed when the connection terminates; Err reports why
	Messages() <-chan domain.PushMessage
	Err() error
	Close() error
}
