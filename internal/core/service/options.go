package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/metrics"
	"github.com/rl1809/order-console/internal/port"
)

const (
	DefaultAdminPollInterval = 10 * time.Second
	DefaultSearchDebounce    = 300 * time.Millisecond
	DefaultSearchMinChars    = 2
	DefaultReconnectBackoff  = time.Second
	maxReconnectBackoff      = 30 * time.Second
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

type options struct {
	logger    *logrus.Logger
	metrics   *metrics.Registry
	notifier  port.Notifier
	confirmer port.Confirmer
	journal   port.Journal
	cache     port.HistoryCache
	dialer    port.PushDialer
	newID     func() string

	pollInterval      time.Duration
	pollIntervalSet   bool
	reconnectAttempts int
	reconnectBackoff  time.Duration
	searchDebounce    time.Duration
	searchMinChars    int
}

type Option func(*options)

func WithLogger(l *logrus.Logger) Option          { return func(o *options) { o.logger = l } }
func WithMetrics(m *metrics.Registry) Option      { return func(o *options) { o.metrics = m } }
func WithNotifier(n port.Notifier) Option         { return func(o *options) { o.notifier = n } }
func WithConfirmer(c port.Confirmer) Option       { return func(o *options) { o.confirmer = c } }
func WithJournal(j port.Journal) Option           { return func(o *options) { o.journal = j } }
func WithHistoryCache(c port.HistoryCache) Option { return func(o *options) { o.cache = c } }
func WithPushDialer(d port.PushDialer) Option     { return func(o *options) { o.dialer = d } }

// WithPollInterval overrides the scope default; zero disables periodic polling.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
		o.pollIntervalSet = true
	}
}

// WithReconnect enables bounded exponential backoff on a dropped push
// channel. attempts == 0 leaves recovery to the poller.
func WithReconnect(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.reconnectAttempts = attempts
		o.reconnectBackoff = backoff
	}
}

func WithSearchDebounce(d time.Duration) Option { return func(o *options) { o.searchDebounce = d } }
func WithSearchMinChars(n int) Option           { return func(o *options) { o.searchMinChars = n } }

func withIDSource(f func() string) Option { return func(o *options) { o.newID = f } }

func buildOptions(opts []Option) options {
	o := options{
		reconnectBackoff: DefaultReconnectBackoff,
		searchDebounce:   DefaultSearchDebounce,
		searchMinChars:   DefaultSearchMinChars,
		newID:            func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewRegistry()
	}
	if o.notifier == nil {
		o.notifier = discardNotifier{}
	}
	if o.confirmer == nil {
		o.confirmer = denyConfirmer{}
	}
	if o.reconnectBackoff <= 0 {
		o.reconnectBackoff = DefaultReconnectBackoff
	}
	return o
}

type discardNotifier struct{}

func (discardNotifier) Error(string)   {}
func (discardNotifier) Success(string) {}

// denyConfirmer answers no, so a synchronizer built without a confirmer can
// never issue a cancel.
type denyConfirmer struct{}

func (denyConfirmer) Confirm(context.Context, string) (bool, error) { return false, nil }
