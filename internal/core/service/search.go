package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/port"
)

// ProductSearch is search-as-you-type: each Query cancels the pending timer
// and any search still in flight, then schedules a fresh one after the
// debounce window. Only the newest query can deliver results.
type ProductSearch struct {
	api  port.OrderAPI
	opts options
	log  *logrus.Entry

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
	closed bool
}

func NewProductSearch(api port.OrderAPI, opts ...Option) *ProductSearch {
	o := buildOptions(opts)
	return &ProductSearch{
		api:  api,
		opts: o,
		log:  o.logger.WithField("component", "search"),
	}
}

// Query schedules a debounced search. onResult runs with the search lock
// held, so it must not call back into the ProductSearch.
func (p *ProductSearch) Query(ctx context.Context, text string, onResult func([]domain.Product)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.stopLocked()

	p.gen++
	gen := p.gen
	searchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.timer = time.AfterFunc(p.opts.searchDebounce, func() {
		products := p.Search(searchCtx, text)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed || p.gen != gen || searchCtx.Err() != nil {
			return
		}
		onResult(products)
	})
}

// Search runs one lookup without debouncing. Short input and failures both
// yield an empty result.
func (p *ProductSearch) Search(ctx context.Context, text string) []domain.Product {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < p.opts.searchMinChars {
		return nil
	}

	p.opts.metrics.Searches.Inc()
	products, err := p.api.SearchProducts(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WithError(err).WithField("query", text).Warn("product search failed")
		}
		return nil
	}
	return products
}

// Close drops the pending query, if any.
func (p *ProductSearch) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.closed = true
}

func (p *ProductSearch) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
