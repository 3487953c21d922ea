package domain

import "time"

// MenuEventType — тип события об изменении дерева меню.
type MenuEventType string

const (
	MenuEventCreated   MenuEventType = "menu.created"
	MenuEventUpdated   MenuEventType = "menu.updated"
	MenuEventDeleted   MenuEventType = "menu.deleted"
	MenuEventReordered MenuEventType = "menu.reordered"
)

// MenuAggregateType — значение AggregateType для outbox-сообщений меню.
const MenuAggregateType = "menu"

// MenuEvent — полезная нагрузка события, которое пишется в outbox
// в той же транзакции, что и изменение дерева.
type MenuEvent struct {
	EventType  MenuEventType `json:"event_type"`
	MenuID     int64         `json:"menu_id,omitempty"`
	ParentID   *int64        `json:"parent_id,omitempty"`
	MenuIDs    []int64       `json:"menu_ids,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Valid проверяет, что тип события известен.
func (t MenuEventType) Valid() bool {
	switch t {
	case MenuEventCreated, MenuEventUpdated, MenuEventDeleted, MenuEventReordered:
		return true
	default:
		return false
	}
}
