package port

import (
	"context"

	"github.com/rl1809/order-console/internal/core/domain"
)

// OrderAPI is the backend REST surface. The backend owns persistence and
// business rules; every method is a single request with no retry.
type OrderAPI interface {
	// CreateOrder submits one order carrying every consolidated item
	CreateOrder(ctx context.Context, requestID string, items []domain.ConsolidatedItem) error

	// ListUserOrders returns the caller's own orders
	ListUserOrders(ctx context.Context) ([]domain.Order, error)

	// ListAllOrders returns every user's orders (admin)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)

	AcceptOrder(ctx context.Context, orderID int64) error
	CancelOrder(ctx context.Context, orderID int64) error

	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
}
