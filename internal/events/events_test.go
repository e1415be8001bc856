package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"isdn/internal/events"
)

func TestEncodeStampsTime(t *testing.T) {
	b, err := events.Encode(events.Event{Type: events.OrderStatus, OrderID: "ord-1", Data: map[string]any{"to": "Delivered"}})
	if err != nil {
		t.Fatal(err)
	}
	var got events.Event
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.At.IsZero() || got.Type != "order.status" || got.Data["to"] != "Delivered" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestRecorder(t *testing.T) {
	var r events.Recorder
	_ = r.Publish(context.Background(), events.Event{Type: events.OrderPlaced, OrderID: "a"})
	_ = r.Publish(context.Background(), events.Event{Type: events.OrderStatus, OrderID: "a"})
	evs := r.Events()
	if len(evs) != 2 || evs[0].Type != events.OrderPlaced {
		t.Fatalf("events = %+v", evs)
	}
}
