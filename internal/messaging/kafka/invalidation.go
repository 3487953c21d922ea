package kafka

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// CacheInvalidator сбрасывает локальный кэш деревьев.
type CacheInvalidator interface {
	InvalidateCache()
}

// NewCacheInvalidationHandler возвращает handler, который сбрасывает
// кэш деревьев на каждое событие меню. Остальные сообщения topic
// пропускаются. Повреждённое сообщение возвращает ошибку и уходит в DLQ.
func NewCacheInvalidationHandler(invalidator CacheInvalidator, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.WithField("component", "kafka-consumer")
	}

	return func(_ context.Context, message *sarama.ConsumerMessage) error {
		if aggregate, ok := headerValue(message, HeaderAggregateType); ok && aggregate != domain.MenuAggregateType {
			return nil
		}

		envelope, err := ParseEnvelope(message)
		if err != nil {
			return err
		}
		if envelope.AggregateType != domain.MenuAggregateType {
			return nil
		}
		event, err := ParseMenuEvent(envelope)
		if err != nil {
			return err
		}

		invalidator.InvalidateCache()
		logger.WithFields(log.Fields{
			"event_type": event.EventType,
			"menu_id":    event.MenuID,
			"outbox_id":  envelope.ID,
		}).Debug("menu tree cache invalidated by event")
		return nil
	}
}
