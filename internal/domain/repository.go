package domain

import "context"

// MenuRepository описывает требования к хранилищу пунктов меню.
// Хранилище не проверяет бизнес-правила: это делает сервис меню.
type MenuRepository interface {
	// FindByID возвращает пункт или nil, если его нет. Отсутствие записи не является ошибкой.
	FindByID(ctx context.Context, id int64) (*Menu, error)
	// Create сохраняет новый пункт и возвращает его с назначенным ID.
	Create(ctx context.Context, input MenuInput) (Menu, error)
	// Update применяет частичные изменения; false, если записи не было.
	Update(ctx context.Context, id int64, patch MenuPatch) (bool, error)
	// Delete удаляет запись; false, если записи не было.
	Delete(ctx context.Context, id int64) (bool, error)
	// ChildrenOf возвращает прямых потомков, отсортированных по order, затем по порядку создания.
	ChildrenOf(ctx context.Context, parentID int64) ([]Menu, error)
	// RootNodes возвращает пункты верхнего уровня в том же порядке.
	RootNodes(ctx context.Context) ([]Menu, error)
	// TreeToDepth загружает корни и depth уровней потомков под ними.
	TreeToDepth(ctx context.Context, depth int) ([]Menu, error)
	// MaxSiblingOrder возвращает максимальный order среди детей parentID
	// (или среди корней, если parentID == nil); false, если соседей нет.
	MaxSiblingOrder(ctx context.Context, parentID *int64) (int, bool, error)
	// Page возвращает страницу плоского списка, упорядоченного по ID, и общее количество.
	Page(ctx context.Context, page, perPage int) ([]Menu, int, error)
}
