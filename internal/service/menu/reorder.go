package menu

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// ReorderMenus применяет новые значения order ко всем пунктам из items,
// рекурсивно спускаясь в children, в одной транзакции. Меняется только
// order; родитель не переназначается. Принадлежность пунктов одному
// родителю и полнота набора не проверяются. Повторный вызов с тем же
// набором не меняет состояние.
func (s *Service) ReorderMenus(ctx context.Context, items []domain.ReorderItem) (ok bool, err error) {
	defer s.observe(opReorder, time.Now(), &err)

	if err := s.validateStruct(reorderRequest{Order: items}); err != nil {
		return false, err
	}

	var touched []int64
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		repo := tx.Menus()

		var apply func(level []domain.ReorderItem) error
		apply = func(level []domain.ReorderItem) error {
			for _, item := range level {
				order := item.Order
				updated, err := repo.Update(ctx, item.ID, domain.MenuPatch{Order: &order})
				if err != nil {
					return fmt.Errorf("reorder menu %d: %w", item.ID, err)
				}
				if !updated {
					return domain.NewValidationError("id", fmt.Sprintf("The selected menu id %d is invalid.", item.ID))
				}
				touched = append(touched, item.ID)

				if len(item.Children) > 0 {
					if err := apply(item.Children); err != nil {
						return err
					}
				}
			}
			return nil
		}
		if err := apply(items); err != nil {
			return err
		}

		return s.enqueueEvent(ctx, tx, domain.MenuEvent{
			EventType: domain.MenuEventReordered,
			MenuIDs:   touched,
		})
	})
	if err != nil {
		return false, s.internal(opReorder, err, log.Fields{"items": len(items)})
	}

	s.invalidate()
	s.logger.WithField("menus", len(touched)).Info("menus reordered")
	return true, nil
}
