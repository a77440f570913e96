package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/port"
)

const (
	messageBuffer = 64
	closeWait     = time.Second
)

// Dialer opens the order status WebSocket: one connection per user, or the
// shared admin feed.
type Dialer struct {
	root     *url.URL
	identity domain.Identity
	ws       *websocket.Dialer
	log      *logrus.Entry
}

// NewDialer takes the push root, for example ws://127.0.0.1:8000.
func NewDialer(pushRoot string, identity domain.Identity, logger *logrus.Logger) (*Dialer, error) {
	root, err := url.Parse(strings.TrimSuffix(pushRoot, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse push root: %w", err)
	}
	if root.Scheme != "ws" && root.Scheme != "wss" {
		return nil, fmt.Errorf("parse push root: unsupported scheme %q", root.Scheme)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dialer{
		root:     root,
		identity: identity,
		ws:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		log:      logger.WithField("component", "push"),
	}, nil
}

func (d *Dialer) Endpoint(scope domain.Scope, username string) string {
	u := *d.root
	if scope == domain.ScopeAdmin {
		u.Path += "/ws/admin/orders/"
	} else {
		u.Path += "/ws/orders/" + url.PathEscape(username) + "/"
	}
	return u.String()
}

func (d *Dialer) Dial(ctx context.Context, scope domain.Scope, username string) (port.Subscription, error) {
	endpoint := d.Endpoint(scope, username)

	header := http.Header{}
	if d.identity.Token != "" {
		header.Set("Authorization", "Bearer "+d.identity.Token)
	}
	header.Set("X-Username", d.identity.Username)

	conn, resp, err := d.ws.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	sub := &subscription{
		conn:     conn,
		messages: make(chan domain.PushMessage, messageBuffer),
		done:     make(chan struct{}),
		log:      d.log.WithField("endpoint", endpoint),
	}
	go sub.readLoop()
	return sub, nil
}

type subscription struct {
	conn     *websocket.Conn
	messages chan domain.PushMessage
	done     chan struct{}
	log      *logrus.Entry

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

func (s *subscription) Messages() <-chan domain.PushMessage { return s.messages }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) readLoop() {
	defer close(s.messages)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(err)
			return
		}

		var msg domain.PushMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.WithError(err).Warn("dropping malformed push message")
			continue
		}

		select {
		case s.messages <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		// closed by us, not a failure
	default:
		if s.err == nil {
			s.err = err
		}
	}
}

// Close sends a close frame and tears the connection down. It is safe to
// call more than once.
func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		err = s.conn.Close()
	})
	return err
}
