package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOrderUnmarshal_CreatedOn(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T10:00:00.5Z"`, time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC)},
		{"offset", `"2024-05-01T12:00:00+02:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"naive fractional", `"2024-05-01T10:00:00.123456"`, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local)},
		{"naive", `"2024-05-01T10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
		{"space separated", `"2024-05-01 10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
		{"date only", `"2024-05-01"`, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)},
		{"null", `null`, time.Time{}},
		{"garbage", `"yesterday"`, time.Time{}},
		{"number", `1714557600`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"id":7,"item_name":"Apple","item_quantity":2,"status":"Pending","created_on":` + tt.raw + `}`
			var o Order
			if err := json.Unmarshal([]byte(data), &o); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !o.CreatedAt.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, o.CreatedAt)
			}
			if o.ID != 7 || o.ItemName != "Apple" || o.Quantity != 2 || o.Status != OrderStatusPending {
				t.Errorf("other fields lost: %+v", o)
			}
		})
	}
}

func TestOrderUnmarshal_MissingCreatedOn(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`{"id":1,"username":"bob"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !o.CreatedAt.IsZero() || o.Username != "bob" {
		t.Errorf("unexpected order %+v", o)
	}
}

func TestOrderRoundTripThroughJSON(t *testing.T) {
	in := Order{ID: 3, ItemName: "Pear", Quantity: 1, Status: OrderStatusProcessed,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Order
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != in.ID || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestCategorize(t *testing.T) {
	b := Categorize([]Order{
		{ID: 1},
		{ID: 2, Status: OrderStatusPending},
		{ID: 3, Status: OrderStatusProcessing},
		{ID: 4, Status: OrderStatusProcessed},
		{ID: 5, Status: OrderStatusCancelled},
		{ID: 6, Status: "Shipped"},
	})

	if len(b.Pending) != 2 || b.Pending[0].ID != 1 {
		t.Errorf("expected orders without status in pending, got %+v", b.Pending)
	}
	if len(b.Processing) != 1 || len(b.Completed) != 2 {
		t.Errorf("unexpected buckets %+v", b)
	}
	if len(b.Other) != 1 || b.Other[0].ID != 6 {
		t.Errorf("expected unknown status in other, got %+v", b.Other)
	}
}
