package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rl1809/order-console/internal/core/domain"
)

// fakeBackend serves the order REST API and the push channel from one
// httptest server.
type fakeBackend struct {
	mu      sync.Mutex
	orders  []domain.Order
	nextID  int64
	conns   map[string][]*websocket.Conn
	lastReq map[string]string

	srv *httptest.Server
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{nextID: 100, conns: map[string][]*websocket.Conn{}, lastReq: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders/{$}", b.createOrder)
	mux.HandleFunc("GET /api/orders/user/{$}", b.listUser)
	mux.HandleFunc("GET /api/admin/orders/{$}", b.listAll)
	mux.HandleFunc("POST /api/admin/orders/{id}/{action}/{$}", b.adminAction)
	mux.HandleFunc("GET /api/products/search/{$}", b.search)
	mux.HandleFunc("/ws/orders/{user}/{$}", func(w http.ResponseWriter, r *http.Request) {
		b.subscribe(w, r, r.PathValue("user"))
	})
	mux.HandleFunc("/ws/admin/orders/{$}", func(w http.ResponseWriter, r *http.Request) {
		b.subscribe(w, r, "admin")
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(func() {
		b.mu.Lock()
		for _, cs := range b.conns {
			for _, c := range cs {
				c.Close()
			}
		}
		b.mu.Unlock()
		b.srv.Close()
	})
	return b
}

func (b *fakeBackend) apiRoot() string  { return b.srv.URL + "/api/" }
func (b *fakeBackend) pushRoot() string { return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/" }

func (b *fakeBackend) note(r *http.Request) {
	b.lastReq[r.Method+" "+r.URL.Path] = r.Header.Get("X-Username")
}

func (b *fakeBackend) createOrder(w http.ResponseWriter, r *http.Request) {
	var items []domain.ConsolidatedItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.note(r)
	for _, it := range items {
		b.nextID++
		b.orders = append(b.orders, domain.Order{
			ID:        b.nextID,
			ItemName:  it.Name,
			Quantity:  it.Quantity,
			Status:    domain.OrderStatusPending,
			CreatedAt: time.Now().UTC(),
			Username:  r.Header.Get("X-Username"),
		})
	}
	b.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{}`))
}

func (b *fakeBackend) listUser(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-Username")
	b.mu.Lock()
	b.note(r)
	var out []domain.Order
	for _, o := range b.orders {
		if o.Username == user {
			out = append(out, o)
		}
	}
	b.mu.Unlock()
	writeJSON(w, map[string]any{"orders": out})
}

func (b *fakeBackend) listAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.note(r)
	out := append([]domain.Order(nil), b.orders...)
	b.mu.Unlock()
	writeJSON(w, map[string]any{"orders": out})
}

func (b *fakeBackend) adminAction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	status := domain.OrderStatusProcessing
	if r.PathValue("action") == "cancel" {
		status = domain.OrderStatusCancelled
	}

	b.mu.Lock()
	b.note(r)
	found := false
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.orders[i].Status = status
			found = true
		}
	}
	b.mu.Unlock()

	if !found {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{})
}

func (b *fakeBackend) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	var out []map[string]any
	for i, name := range []string{"Apple", "Apricot", "Banana"} {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, map[string]any{"id": fmt.Sprintf("p-%d", i+1), "name": name, "stock": 10, "price": "1.25"})
		}
	}
	writeJSON(w, map[string]any{"products": out})
}

func (b *fakeBackend) subscribe(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.conns[key] = append(b.conns[key], conn)
	b.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *fakeBackend) subscribers(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns[key])
}

func (b *fakeBackend) push(t *testing.T, key, frame string) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns[key] {
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Errorf("push: %v", err)
		}
	}
}

func (b *fakeBackend) setStatus(id int64, status domain.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.orders[i].Status = status
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
