package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventItemRented, handler)

	payload := RentalEventPayload{ItemID: "BIKE001", TransactionID: "T0001", TotalCost: decimal.NewFromInt(150)}
	if err := bus.PublishJSON(EventItemRented, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventItemRented {
		t.Errorf("expected type %s, got %s", EventItemRented, received.Type)
	}

	if _, err := uuid.Parse(received.ID); err != nil {
		t.Errorf("expected uuid event id, got %q", received.ID)
	}

	decoded, err := Decode(received)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.TransactionID != "T0001" || !decoded.TotalCost.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	if err := bus.Publish(&Event{Type: "event"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusHandlerError(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	var after int

	bus.Subscribe("event", func(_ *Event) error { return boom })
	bus.Subscribe("event", func(_ *Event) error { after++; return nil })

	err := bus.Publish(&Event{Type: "event"})
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
	if after != 1 {
		t.Errorf("expected later handler to still run")
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	if err := bus.Publish(&Event{Type: "unknown"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}

func TestNewJSONEvent(t *testing.T) {
	payload := RentalEventPayload{ItemID: "TENT001"}
	event, err := NewJSONEvent(EventItemAdded, payload)
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}

	if event.Type != EventItemAdded {
		t.Errorf("expected %s, got %s", EventItemAdded, event.Type)
	}

	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded RentalEventPayload
	if err := json.Unmarshal(event.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if decoded.ItemID != "TENT001" {
		t.Errorf("expected ItemID TENT001, got %s", decoded.ItemID)
	}

	if _, err := NewJSONEvent("bad", make(chan int)); err == nil {
		t.Errorf("expected marshal error for channel payload")
	}
}
