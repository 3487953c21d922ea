package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateCache() { c.calls++ }

func menuMessage(t *testing.T, aggregateType string, event domain.MenuEvent) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	value, err := json.Marshal(Envelope{
		ID:            "outbox-1",
		AggregateType: aggregateType,
		AggregateID:   "5",
		EventType:     string(event.EventType),
		Payload:       payload,
		PublishedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &sarama.ConsumerMessage{Topic: TopicMenuEvents, Key: []byte("5"), Value: value}
}

func TestCacheInvalidationHandler(t *testing.T) {
	logger := log.WithField("test", "invalidation")

	t.Run("menu event invalidates cache", func(t *testing.T) {
		invalidator := &countingInvalidator{}
		handler := NewCacheInvalidationHandler(invalidator, logger)

		for _, eventType := range []domain.MenuEventType{
			domain.MenuEventCreated, domain.MenuEventUpdated, domain.MenuEventDeleted, domain.MenuEventReordered,
		} {
			msg := menuMessage(t, domain.MenuAggregateType, domain.MenuEvent{EventType: eventType, MenuID: 5})
			if err := handler(context.Background(), msg); err != nil {
				t.Fatalf("%s: unexpected error: %v", eventType, err)
			}
		}
		if invalidator.calls != 4 {
			t.Fatalf("expected 4 invalidations, got %d", invalidator.calls)
		}
	})

	t.Run("foreign aggregate is skipped", func(t *testing.T) {
		invalidator := &countingInvalidator{}
		handler := NewCacheInvalidationHandler(invalidator, logger)

		msg := menuMessage(t, "order", domain.MenuEvent{EventType: domain.MenuEventCreated})
		if err := handler(context.Background(), msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		byHeader := &sarama.ConsumerMessage{
			Value:   []byte("not json"),
			Headers: []*sarama.RecordHeader{{Key: []byte(HeaderAggregateType), Value: []byte("order")}},
		}
		if err := handler(context.Background(), byHeader); err != nil {
			t.Fatalf("header filter should skip before decoding: %v", err)
		}
		if invalidator.calls != 0 {
			t.Fatalf("expected no invalidations, got %d", invalidator.calls)
		}
	})

	t.Run("malformed message returns error", func(t *testing.T) {
		invalidator := &countingInvalidator{}
		handler := NewCacheInvalidationHandler(invalidator, nil)

		if err := handler(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
			t.Fatal("expected decode error")
		}
		msg := menuMessage(t, domain.MenuAggregateType, domain.MenuEvent{EventType: "menu.archived"})
		if err := handler(context.Background(), msg); err == nil {
			t.Fatal("expected unknown event type error")
		}
		if invalidator.calls != 0 {
			t.Fatalf("expected no invalidations, got %d", invalidator.calls)
		}
	})
}

func TestParseMenuEventErrors(t *testing.T) {
	if _, err := ParseMenuEvent(nil); err == nil {
		t.Fatal("expected error for nil envelope")
	}
	if _, err := ParseMenuEvent(&Envelope{Payload: json.RawMessage(`[`)}); err == nil {
		t.Fatal("expected error for broken payload")
	}
	if _, err := ParseEnvelope(&sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
		t.Fatal("expected ParseEnvelope error")
	}
}
