package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

const internalErrorDetail = "Internal server error"

// envelope — общий формат ответа API.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
	Meta    *pageMeta         `json:"meta,omitempty"`
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// writeJSON пишет ответ. Заголовки к этому моменту уже отправлены, поэтому
// ошибка кодирования только логируется.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).WithField("status", status).Debug("failed to encode response")
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any, message string) {
	h.writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

// writeError переводит категорию ошибки движка в код ответа.
// failMessage используется для внутренних ошибок и конфликтов.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, failMessage string) {
	switch {
	case domain.IsValidation(err):
		h.writeJSON(w, http.StatusUnprocessableEntity, envelope{
			Message: "Validation failed",
			Errors:  map[string]string{"validation": validationMessage(err)},
		})
	case domain.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, envelope{Message: "Menu not found"})
	case domain.IsConflict(err):
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: failMessage + ": " + err.Error(),
			Error:   h.detail(err),
		})
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(failMessage)
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: failMessage,
			Error:   h.detail(err),
		})
	}
}

// detail раскрывает текст ошибки только в debug-режиме.
func (h *Handler) detail(err error) string {
	if h.debug {
		return err.Error()
	}
	return internalErrorDetail
}

func validationMessage(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return err.Error()
}
