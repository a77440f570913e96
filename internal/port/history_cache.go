package port

import (
	"context"

	"github.com/rl1809/order-console/internal/core/domain"
)

type HistoryCache interface {
	// SaveHistory stores the latest full snapshot for a scope key
	SaveHistory(ctx context.Context, key string, orders []domain.Order) error

	// LoadHistory returns the stored snapshot, false if none
	LoadHistory(ctx context.Context, key string) ([]domain.Order, bool, error)
}
