package service

import (
	"sync"
	"time"

	"github.com/rl1809/order-console/internal/core/domain"
)

const (
	DefaultErrorNoticeTTL   = 3 * time.Second
	DefaultSuccessNoticeTTL = 5 * time.Second
)

// NoticeBoard keeps the transient messages shown to the user. Each notice
// disappears on its own once its TTL has passed.
type NoticeBoard struct {
	errorTTL   time.Duration
	successTTL time.Duration
	sink       func(domain.Notice)

	mu      sync.Mutex
	notices []domain.Notice
}

// NewNoticeBoard returns a board; sink, if non-nil, sees every notice as it
// is posted.
func NewNoticeBoard(errorTTL, successTTL time.Duration, sink func(domain.Notice)) *NoticeBoard {
	if errorTTL <= 0 {
		errorTTL = DefaultErrorNoticeTTL
	}
	if successTTL <= 0 {
		successTTL = DefaultSuccessNoticeTTL
	}
	return &NoticeBoard{errorTTL: errorTTL, successTTL: successTTL, sink: sink}
}

func (b *NoticeBoard) Error(text string)   { b.post(domain.NoticeError, text, b.errorTTL) }
func (b *NoticeBoard) Success(text string) { b.post(domain.NoticeSuccess, text, b.successTTL) }

func (b *NoticeBoard) post(level domain.NoticeLevel, text string, ttl time.Duration) {
	n := domain.Notice{Level: level, Text: text, ExpiresAt: nowFunc().Add(ttl)}

	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()

	if b.sink != nil {
		b.sink(n)
	}
}

// Active drops expired notices and returns the rest, oldest first.
func (b *NoticeBoard) Active() []domain.Notice {
	now := nowFunc()

	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.notices[:0]
	for _, n := range b.notices {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	b.notices = live

	out := make([]domain.Notice, len(live))
	copy(out, live)
	return out
}

// Dismiss removes every notice of the given level.
func (b *NoticeBoard) Dismiss(level domain.NoticeLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.Level != level {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}
