package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusProcessed  OrderStatus = "Processed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Display returns the label shown for the status; orders the backend has not
// assigned a status yet are shown as pending.
func (s OrderStatus) Display() string {
	if s == "" {
		return string(OrderStatusPending)
	}
	return string(s)
}

type Order struct {
	ID        int64       `json:"id"`
	ItemName  string      `json:"item_name"`
	Quantity  int         `json:"item_quantity"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_on"`
	Username  string      `json:"username,omitempty"` // admin view only
}

// createdOnLayouts are tried in order. Backends without time zone support
// send naive timestamps; those are read in local time.
var createdOnLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func parseCreatedOn(s string) (time.Time, bool) {
	for i, layout := range createdOnLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 || i == 2 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON accepts any timestamp shape the backend may send for
// created_on. A null or unreadable timestamp leaves CreatedAt zero instead of
// failing the whole order list.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		CreatedOn json.RawMessage `json:"created_on"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.CreatedAt = time.Time{}
	raw := bytes.TrimSpace(aux.CreatedOn)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if t, ok := parseCreatedOn(s); ok {
		o.CreatedAt = t
	}
	return nil
}

// Buckets is the display partition of an order list. It is derived on read
// and never stored. Orders without a status count as pending; statuses this
// client does not know land in Other so no order is hidden.
type Buckets struct {
	Pending    []Order
	Processing []Order
	Completed  []Order
	Other      []Order
}

func Categorize(orders []Order) Buckets {
	var b Buckets
	for _, o := range orders {
		switch o.Status {
		case OrderStatusPending, "":
			b.Pending = append(b.Pending, o)
		case OrderStatusProcessing:
			b.Processing = append(b.Processing, o)
		case OrderStatusProcessed, OrderStatusCancelled:
			b.Completed = append(b.Completed, o)
		default:
			b.Other = append(b.Other, o)
		}
	}
	return b
}

type Scope int

const (
	ScopeUser Scope = iota
	ScopeAdmin
)

func (s Scope) String() string {
	if s == ScopeAdmin {
		return "admin"
	}
	return "user"
}
