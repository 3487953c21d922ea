package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

const maxBodyBytes = 1 << 20

// optionalID различает отсутствующее поле, null и значение.
type optionalID struct {
	Set   bool
	Value *int64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type updateRequest struct {
	Name     *string    `json:"name"`
	ParentID optionalID `json:"parent_id"`
	Order    *int       `json:"order"`
}

func (r updateRequest) patch() domain.MenuPatch {
	return domain.MenuPatch{
		Name:      r.Name,
		Order:     r.Order,
		ParentSet: r.ParentID.Set,
		ParentID:  r.ParentID.Value,
	}
}

type reorderRequest struct {
	Order []domain.ReorderItem `json:"order"`
}

// decodeJSON читает тело запроса. Некорректный JSON — ошибка валидации.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return domain.NewValidationError("", "The request body could not be read.")
	}
	if len(body) > maxBodyBytes {
		return domain.NewValidationError("", "The request body is too large.")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field := typeErr.Field
			return domain.NewValidationError(field, fmt.Sprintf("The %s field has an invalid type.", strings.ReplaceAll(field, "_", " ")))
		}
		return domain.NewValidationError("", "The request body must be valid JSON.")
	}
	return nil
}

// menuID разбирает {id}. Нечисловой id не может адресовать пункт меню.
func menuID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("menu with id %q: %w", raw, domain.ErrMenuNotFound)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, fmt.Sprintf("The %s must be an integer.", strings.ReplaceAll(name, "_", " ")))
	}
	return value, nil
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, fmt.Sprintf("The %s field must be true or false.", name))
	}
	return value, nil
}
