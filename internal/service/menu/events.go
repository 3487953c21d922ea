package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// enqueueEvent пишет событие в outbox внутри транзакции изменения.
func (s *Service) enqueueEvent(ctx context.Context, tx domain.Tx, event domain.MenuEvent) error {
	if !s.outboxEvents {
		return nil
	}

	event.OccurredAt = s.now()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}

	aggregateID := ""
	if event.MenuID != 0 {
		aggregateID = strconv.FormatInt(event.MenuID, 10)
	}

	if _, err := tx.Outbox().Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.MenuAggregateType,
		AggregateID:   aggregateID,
		EventType:     string(event.EventType),
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("enqueue %s event: %w", event.EventType, err)
	}
	return nil
}
