package port

import (
	"context"

	"github.com/rl1809/order-console/internal/core/domain"
)

type Journal interface {
	// RecordSubmission appends one create-order attempt, failed or not
	RecordSubmission(ctx context.Context, sub domain.Submission) error

	// RecordStatusEvent appends a push status change that was applied locally
	RecordStatusEvent(ctx context.Context, username string, ev domain.StatusEvent) error
}
