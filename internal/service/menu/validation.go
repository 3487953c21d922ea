package menu

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// reorderRequest оборачивает список для валидации: корневой список
// обязан быть непустым, каждый элемент проверяется рекурсивно.
type reorderRequest struct {
	Order []domain.ReorderItem `json:"order" validate:"required,min=1,dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct проверяет теги validate и переводит первую ошибку
// в *domain.ValidationError.
func (s *Service) validateStruct(value any) error {
	err := s.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	return translateFieldError(fieldErrs[0])
}

func translateFieldError(fe validator.FieldError) *domain.ValidationError {
	field := fe.Field()
	label := strings.ReplaceAll(field, "_", " ")

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("The %s field is required.", label)
	case "max":
		if fe.Kind() == reflect.String {
			message = fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
		} else {
			message = fmt.Sprintf("The %s may not be greater than %s.", label, fe.Param())
		}
	case "min":
		if fe.Kind() == reflect.Slice {
			message = fmt.Sprintf("The %s must have at least %s items.", label, fe.Param())
		} else {
			message = fmt.Sprintf("The %s must be at least %s.", label, fe.Param())
		}
	case "gt":
		message = fmt.Sprintf("The %s must be greater than %s.", label, fe.Param())
	default:
		message = fmt.Sprintf("The %s is invalid.", label)
	}
	return domain.NewValidationError(field, message)
}

func invalidParent() error {
	return domain.NewValidationError("parent_id", "The selected parent id is invalid.")
}
