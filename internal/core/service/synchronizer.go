package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/port"
)

// Synchronizer keeps a local copy of the order history. Polling replaces the
// whole copy; push events patch the status of orders already known. Poll
// always wins on full state.
type Synchronizer struct {
	scope    domain.Scope
	identity domain.Identity
	api      port.OrderAPI
	opts     options
	log      *logrus.Entry

	mu          sync.RWMutex
	history     []domain.Order
	refreshedAt time.Time
	refreshErr  error
	closed      bool
}

func NewSynchronizer(scope domain.Scope, identity domain.Identity, api port.OrderAPI, opts ...Option) *Synchronizer {
	o := buildOptions(opts)
	if !o.pollIntervalSet && scope == domain.ScopeAdmin {
		o.pollInterval = DefaultAdminPollInterval
	}
	return &Synchronizer{
		scope:    scope,
		identity: identity,
		api:      api,
		opts:     o,
		log: o.logger.WithFields(logrus.Fields{
			"component": "synchronizer",
			"scope":     scope.String(),
			"username":  identity.Username,
		}),
	}
}

func (s *Synchronizer) Scope() domain.Scope { return s.scope }

// Orders returns a copy of the current history.
func (s *Synchronizer) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, len(s.history))
	copy(orders, s.history)
	return orders
}

func (s *Synchronizer) Buckets() domain.Buckets {
	return domain.Categorize(s.Orders())
}

// Health reports when the last successful refresh happened and the error of
// the most recent attempt, if it failed.
func (s *Synchronizer) Health() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt, s.refreshErr
}

// Refresh fetches the full order list and replaces the local history.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}

	start := nowFunc()
	s.opts.metrics.Polls.Inc()

	orders, err := s.fetch(ctx)
	s.opts.metrics.RefreshLatencySec.Observe(nowFunc().Sub(start).Seconds())
	if err != nil {
		s.opts.metrics.PollFailures.Inc()
		s.log.WithError(err).Error("fetch orders failed")
		s.mu.Lock()
		s.refreshErr = err
		s.mu.Unlock()
		if s.scope == domain.ScopeAdmin {
			s.opts.notifier.Error("Failed to fetch orders")
		}
		return fmt.Errorf("refresh %s orders: %w", s.scope, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.history = append([]domain.Order(nil), orders...)
	s.refreshedAt = nowFunc()
	s.refreshErr = nil
	s.mu.Unlock()

	s.opts.metrics.HistorySize.Set(float64(len(orders)))
	s.saveSnapshot(ctx, orders)
	return nil
}

func (s *Synchronizer) fetch(ctx context.Context) ([]domain.Order, error) {
	if s.scope == domain.ScopeAdmin {
		return s.api.ListAllOrders(ctx)
	}
	return s.api.ListUserOrders(ctx)
}

// ApplyStatus sets the status of a known order and leaves every other field
// alone. It reports false when the order is not in the local history; the
// next refresh picks it up.
func (s *Synchronizer) ApplyStatus(ev domain.StatusEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	for i := range s.history {
		if s.history[i].ID == ev.OrderID {
			s.history[i].Status = ev.Status
			return true
		}
	}
	return false
}

// HandleMessage dispatches one push message.
func (s *Synchronizer) HandleMessage(ctx context.Context, msg domain.PushMessage) {
	switch msg.Type {
	case domain.MessageOrderStatus:
		var ev domain.StatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.opts.metrics.PushIgnored.Inc()
			s.log.WithError(err).Warn("malformed order_status message")
			return
		}

		log := s.log.WithFields(logrus.Fields{"order_id": ev.OrderID, "status": ev.Status})
		if !s.ApplyStatus(ev) {
			s.opts.metrics.PushIgnored.Inc()
			log.Debug("status for unknown order, waiting for next poll")
			return
		}

		s.opts.metrics.PushApplied.Inc()
		log.Info("order status updated")
		s.opts.notifier.Success(fmt.Sprintf("Order #%d status updated to: %s", ev.OrderID, ev.Status))
		s.record(ctx, ev)

	case domain.MessageOrderUpdate:
		s.opts.metrics.PushRefreshes.Inc()
		s.log.Debug("order update received, refreshing")
		_ = s.Refresh(ctx)

	default:
		s.opts.metrics.PushIgnored.Inc()
		s.log.WithField("type", msg.Type).Debug("ignoring push message")
	}
}

func (s *Synchronizer) AcceptOrder(ctx context.Context, orderID int64) error {
	if s.scope != domain.ScopeAdmin {
		return ErrNotAdmin
	}
	return s.adminAction(ctx, "accept", "accepted", orderID, s.api.AcceptOrder)
}

// CancelOrder asks the confirmer first and issues no request unless the
// answer is yes.
func (s *Synchronizer) CancelOrder(ctx context.Context, orderID int64) error {
	if s.scope != domain.ScopeAdmin {
		return ErrNotAdmin
	}

	ok, err := s.opts.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to cancel order #%d?", orderID))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfirmed, err)
	}
	if !ok {
		return ErrNotConfirmed
	}

	return s.adminAction(ctx, "cancel", "cancelled", orderID, s.api.CancelOrder)
}

func (s *Synchronizer) adminAction(ctx context.Context, action, done string, orderID int64, call func(context.Context, int64) error) error {
	log := s.log.WithFields(logrus.Fields{"order_id": orderID, "action": action})

	if err := call(ctx, orderID); err != nil {
		s.opts.metrics.AdminActions.WithLabelValues(action, "failure").Inc()
		log.WithError(err).Error("admin action failed")
		s.opts.notifier.Error(fmt.Sprintf("Failed to %s order", action))
		return fmt.Errorf("%w: %s order %d: %w", ErrAdminAction, action, orderID, err)
	}

	s.opts.metrics.AdminActions.WithLabelValues(action, "success").Inc()
	log.Info("admin action done")
	s.opts.notifier.Success(fmt.Sprintf("Order #%d %s successfully", orderID, done))
	_ = s.Refresh(ctx)
	return nil
}

// Run owns the synchronizer for the lifetime of ctx: it primes the history
// from the cache, refreshes once, polls on the configured interval and
// consumes the push channel. Push failures are logged only; polling is the
// recovery path unless reconnects were enabled. Once Run returns no further
// results are applied.
func (s *Synchronizer) Run(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	defer s.close()

	s.primeFromCache(ctx)
	_ = s.Refresh(ctx)

	poller := NewPoller(s.opts.pollInterval, func() { _ = s.Refresh(ctx) }, s.opts.logger)
	if err := poller.Start(); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}
	defer poller.Stop()

	if s.opts.dialer != nil {
		s.consumePush(ctx)
	}

	<-ctx.Done()
	return nil
}

func (s *Synchronizer) consumePush(ctx context.Context) {
	attempt := 0
	for {
		sub, err := s.opts.dialer.Dial(ctx, s.scope, s.identity.Username)
		if err == nil {
			attempt = 0
			s.log.Info("push channel connected")
			s.drain(ctx, sub)
			if ctx.Err() != nil {
				return
			}
			err = sub.Err()
		}
		if ctx.Err() != nil {
			return
		}

		s.opts.metrics.PushDisconnects.Inc()
		s.log.WithError(err).Warn("push channel closed, relying on polling")
		if attempt >= s.opts.reconnectAttempts {
			return
		}

		delay := reconnectDelay(s.opts.reconnectBackoff, attempt)
		attempt++
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (s *Synchronizer) drain(ctx context.Context, sub port.Subscription) {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			s.HandleMessage(ctx, msg)
		}
	}
}

func reconnectDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt && d < maxReconnectBackoff; i++ {
		d *= 2
	}
	if d > maxReconnectBackoff {
		d = maxReconnectBackoff
	}
	return d
}

func (s *Synchronizer) cacheKey() string {
	if s.scope == domain.ScopeAdmin {
		return "history:admin"
	}
	return "history:user:" + s.identity.Username
}

func (s *Synchronizer) primeFromCache(ctx context.Context) {
	if s.opts.cache == nil {
		return
	}

	orders, ok, err := s.opts.cache.LoadHistory(ctx, s.cacheKey())
	if err != nil {
		s.log.WithError(err).Warn("load cached history failed")
		return
	}
	if !ok {
		return
	}

	s.mu.Lock()
	if s.history == nil && s.refreshedAt.IsZero() {
		s.history = orders
	}
	s.mu.Unlock()
}

func (s *Synchronizer) saveSnapshot(ctx context.Context, orders []domain.Order) {
	if s.opts.cache == nil {
		return
	}
	if err := s.opts.cache.SaveHistory(ctx, s.cacheKey(), orders); err != nil {
		s.log.WithError(err).Warn("save history snapshot failed")
	}
}

func (s *Synchronizer) record(ctx context.Context, ev domain.StatusEvent) {
	if s.opts.journal == nil {
		return
	}
	if err := s.opts.journal.RecordStatusEvent(ctx, s.identity.Username, ev); err != nil {
		s.log.WithError(err).Warn("journal status event failed")
	}
}

func (s *Synchronizer) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Synchronizer) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
