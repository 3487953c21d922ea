package domain

import (
	"context"
	"time"
)

// Tx — область транзакции: репозитории, привязанные к одной транзакции хранилища.
type Tx interface {
	Menus() MenuRepository
	Outbox() OutboxRepository
}

// Transactor выполняет fn в транзакции: commit только при успехе,
// rollback при любой ошибке или панике.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// TreeCache хранит материализованные деревья меню по ключу глубины.
// Кэш не является источником истины: его отсутствие не меняет результат.
type TreeCache interface {
	Get(depth int) ([]Menu, bool)
	Put(depth int, tree []Menu, ttl time.Duration)
	InvalidateAll()
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
