package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/port"
)

var errBackend = errors.New("backend unavailable")

// Mock OrderAPI
type mockOrderAPI struct {
	mu sync.Mutex

	orders      []domain.Order
	products    []domain.Product
	createErr   error
	listErr     error
	adminErr    error
	searchErr   error
	searchBlock chan struct{}

	created     [][]domain.ConsolidatedItem
	requestIDs  []string
	accepted    []int64
	cancelled   []int64
	userLists   int
	adminLists  int
	searches    []string
	nextOrderID int64
}

func newMockOrderAPI(orders ...domain.Order) *mockOrderAPI {
	return &mockOrderAPI{orders: orders, nextOrderID: 100}
}

func (m *mockOrderAPI) CreateOrder(ctx context.Context, requestID string, items []domain.ConsolidatedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestIDs = append(m.requestIDs, requestID)
	m.created = append(m.created, items)
	if m.createErr != nil {
		return m.createErr
	}
	for _, it := range items {
		m.nextOrderID++
		m.orders = append(m.orders, domain.Order{
			ID:       m.nextOrderID,
			ItemName: it.Name,
			Quantity: it.Quantity,
			Status:   domain.OrderStatusPending,
		})
	}
	return nil
}

func (m *mockOrderAPI) ListUserOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userLists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Order(nil), m.orders...), nil
}

func (m *mockOrderAPI) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.adminLists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Order(nil), m.orders...), nil
}

func (m *mockOrderAPI) AcceptOrder(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accepted = append(m.accepted, orderID)
	if m.adminErr != nil {
		return m.adminErr
	}
	m.setStatusLocked(orderID, domain.OrderStatusProcessing)
	return nil
}

func (m *mockOrderAPI) CancelOrder(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelled = append(m.cancelled, orderID)
	if m.adminErr != nil {
		return m.adminErr
	}
	m.setStatusLocked(orderID, domain.OrderStatusCancelled)
	return nil
}

func (m *mockOrderAPI) setStatusLocked(orderID int64, status domain.OrderStatus) {
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
		}
	}
}

func (m *mockOrderAPI) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	m.mu.Lock()
	m.searches = append(m.searches, query)
	block := m.searchBlock
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.products, nil
}

func (m *mockOrderAPI) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

func (m *mockOrderAPI) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

// Mock Notifier
type mockNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *mockNotifier) Error(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

func (n *mockNotifier) Success(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, text)
}

func (n *mockNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

// Mock Confirmer
type mockConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (c *mockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

// Mock Refresher
type mockRefresher struct {
	calls int
	err   error
}

func (r *mockRefresher) Refresh(ctx context.Context) error {
	r.calls++
	return r.err
}

// Mock Journal
type mockJournal struct {
	mu          sync.Mutex
	submissions []domain.Submission
	events      []domain.StatusEvent
}

func (j *mockJournal) RecordSubmission(ctx context.Context, sub domain.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.submissions = append(j.submissions, sub)
	return nil
}

func (j *mockJournal) RecordStatusEvent(ctx context.Context, username string, ev domain.StatusEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

// Mock HistoryCache
type mockHistoryCache struct {
	mu    sync.Mutex
	saved map[string][]domain.Order
}

func newMockHistoryCache() *mockHistoryCache {
	return &mockHistoryCache{saved: make(map[string][]domain.Order)}
}

func (c *mockHistoryCache) SaveHistory(ctx context.Context, key string, orders []domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved[key] = append([]domain.Order(nil), orders...)
	return nil
}

func (c *mockHistoryCache) LoadHistory(ctx context.Context, key string) ([]domain.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	orders, ok := c.saved[key]
	return orders, ok, nil
}

// Mock PushDialer: each Dial hands out the next subscription, or fails once
// they run out.
type mockDialer struct {
	mu    sync.Mutex
	subs  []*mockSubscription
	dials int
}

func (d *mockDialer) Dial(ctx context.Context, scope domain.Scope, username string) (port.Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if len(d.subs) == 0 {
		return nil, errors.New("dial refused")
	}
	sub := d.subs[0]
	d.subs = d.subs[1:]
	return sub, nil
}

func (d *mockDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type mockSubscription struct {
	ch     chan domain.PushMessage
	closed chan struct{}
	once   sync.Once
}

func newMockSubscription() *mockSubscription {
	return &mockSubscription{
		ch:     make(chan domain.PushMessage, 16),
		closed: make(chan struct{}),
	}
}

func (s *mockSubscription) Messages() <-chan domain.PushMessage { return s.ch }
func (s *mockSubscription) Err() error                          { return errors.New("connection reset") }

func (s *mockSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
