package domain

import "time"

const (
	// MenuNameMaxLength — максимальная длина названия пункта меню в символах.
	MenuNameMaxLength = 255
)

// Menu описывает один пункт иерархического меню.
type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Children заполняется только при чтении дерева; за пределами
	// запрошенной глубины остаётся пустым.
	Children []Menu `json:"children,omitempty"`
}

// IsRoot сообщает, находится ли пункт на верхнем уровне.
func (m Menu) IsRoot() bool {
	return m.ParentID == nil
}

// MaxOrder — верхняя граница order, совпадает с колонкой sort_order INTEGER.
const MaxOrder = 1<<31 - 1

// MenuInput — данные для создания пункта меню.
type MenuInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	// Order == nil означает "поставить в конец среди соседей".
	Order *int `json:"order" validate:"omitempty,min=0,max=2147483647"`
}

// MenuPatch — частичное обновление пункта меню. Поля со значением nil не меняются.
type MenuPatch struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Order *int    `json:"order" validate:"omitempty,min=0,max=2147483647"`
	// ParentSet различает "parent_id не передан" и "parent_id: null" (перенос в корень).
	ParentSet bool   `json:"-"`
	ParentID  *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p MenuPatch) IsEmpty() bool {
	return p.Name == nil && p.Order == nil && !p.ParentSet
}

// ReorderItem задаёт новую позицию пункта и, рекурсивно, его дочерних пунктов.
type ReorderItem struct {
	ID       int64         `json:"id" validate:"required,gt=0"`
	Order    int           `json:"order" validate:"min=0,max=2147483647"`
	Children []ReorderItem `json:"children,omitempty" validate:"omitempty,dive"`
}

// MenuPage — страница плоского списка пунктов меню.
type MenuPage struct {
	Items   []Menu `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// LastPage возвращает номер последней страницы (минимум 1).
func (p MenuPage) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}
