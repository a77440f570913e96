package port

import "context"

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Error(text string)
	Success(text string)
}

// Confirmer gates destructive actions behind an explicit user answer.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}
