package domain

import (
	"errors"
	"fmt"
)

// Категории ошибок. Конкретные ошибки оборачивают одну из них,
// транспортный слой выбирает код ответа через errors.Is.
var (
	// ErrValidation — входные данные нарушают ограничения полей или ссылочную целостность.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — операция адресована несуществующему пункту.
	ErrNotFound = errors.New("not found")
	// ErrConflict — операция невозможна в текущем состоянии дерева.
	ErrConflict = errors.New("conflict")
	// ErrInternal — неожиданная ошибка хранилища.
	ErrInternal = errors.New("internal error")
)

var (
	// ErrMenuNotFound возвращается, если пункт меню не найден.
	ErrMenuNotFound = fmt.Errorf("menu %w", ErrNotFound)
	// ErrMenuHasChildren — удаление пункта, у которого есть дочерние пункты.
	ErrMenuHasChildren = fmt.Errorf("%w: cannot delete menu with children, delete children first", ErrConflict)
	// ErrMenuUpdateFailed — хранилище не изменило запись (например, её удалили между чтением и записью).
	ErrMenuUpdateFailed = fmt.Errorf("%w: menu update affected no rows", ErrInternal)
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ValidationError описывает нарушение ограничения конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is позволяет сопоставлять ValidationError с категорией ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MenuNotFound возвращает ErrMenuNotFound с идентификатором пункта.
func MenuNotFound(id int64) error {
	return fmt.Errorf("menu with id %d: %w", id, ErrMenuNotFound)
}

// IsValidation проверяет, относится ли ошибка к валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующему пункту.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict проверяет, является ли ошибка конфликтом состояния.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
