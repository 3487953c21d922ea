package app

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если брокеры заданы.
// Ошибка не фатальна: сервис продолжает работу без событий.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// cacheConsumerGroup — у каждого экземпляра своя группа, чтобы событие
// получили все экземпляры, а не один из них.
func cacheConsumerGroup() string {
	return "menu-service-cache-" + uuid.NewString()
}

// startCacheConsumer подписывает кэш деревьев на события меню от всех экземпляров.
func startCacheConsumer(ctx context.Context, cfg Config, invalidator kafka.CacheInvalidator, dlq *kafka.Producer, logger *log.Entry) *kafka.Consumer {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil
	}

	opts := []kafka.ConsumerOption{
		kafka.WithConsumerLogger(log.WithField("component", "kafka-consumer")),
	}
	if dlq != nil {
		opts = append(opts, kafka.WithDLQ(dlq, kafka.DLQTopic(cfg.KafkaTopic)))
	}

	consumer, err := kafka.NewConsumer(
		brokers,
		cacheConsumerGroup(),
		[]string{cfg.KafkaTopic},
		kafka.NewCacheInvalidationHandler(invalidator, logger),
		opts...,
	)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka consumer, cross-instance cache invalidation disabled")
		return nil
	}
	if err := consumer.Start(ctx); err != nil {
		logger.WithError(err).Warn("failed to start kafka consumer")
		return nil
	}
	return consumer
}

// closeKafkaProducer закрывает Kafka producer если он не nil.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

func stopKafkaConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop kafka consumer")
	}
}
