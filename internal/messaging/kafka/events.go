package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// Topics для Kafka
const (
	TopicMenuEvents = "menus.events"
	dlqSuffix       = ".dlq"
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// DLQTopic возвращает имя dead letter topic для topic.
func DLQTopic(topic string) string {
	if topic == "" {
		topic = TopicMenuEvents
	}
	return topic + dlqSuffix
}

// Envelope — формат сообщения в topic событий меню.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// ParseEnvelope разбирает конверт из сообщения Kafka.
func ParseEnvelope(message *sarama.ConsumerMessage) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(message.Value, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &envelope, nil
}

// ParseMenuEvent разбирает полезную нагрузку события меню.
func ParseMenuEvent(envelope *Envelope) (*domain.MenuEvent, error) {
	if envelope == nil || len(envelope.Payload) == 0 {
		return nil, fmt.Errorf("envelope has no payload")
	}
	var event domain.MenuEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu event: %w", err)
	}
	if !event.EventType.Valid() {
		return nil, fmt.Errorf("unknown menu event type %q", event.EventType)
	}
	return &event, nil
}

func headerValue(message *sarama.ConsumerMessage, key string) (string, bool) {
	for _, header := range message.Headers {
		if header != nil && string(header.Key) == key {
			return string(header.Value), true
		}
	}
	return "", false
}
