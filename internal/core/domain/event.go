package domain

import (
	"encoding/json"
	"time"
)

const (
	MessageOrderStatus = "order_status"
	MessageOrderUpdate = "order_update"
)

// PushMessage is the envelope of every message on the push channel.
type PushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type StatusEvent struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

type Submission struct {
	RequestID string
	Username  string
	Items     []ConsolidatedItem
	Succeeded bool
	Error     string
	CreatedAt time.Time
}
