// Package httpapi публикует движок меню как JSON API поверх chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
)

// MenuService — операции движка, доступные через API.
type MenuService interface {
	GetTree(ctx context.Context, depth int, useCache bool) ([]domain.Menu, error)
	FindMenu(ctx context.Context, id int64) (domain.Menu, error)
	CreateMenu(ctx context.Context, input domain.MenuInput) (domain.Menu, error)
	UpdateMenu(ctx context.Context, id int64, patch domain.MenuPatch) (domain.Menu, error)
	DeleteMenu(ctx context.Context, id int64) (bool, error)
	GetMenuChildren(ctx context.Context, parentID int64) ([]domain.Menu, error)
	ReorderMenus(ctx context.Context, items []domain.ReorderItem) (bool, error)
	PaginateMenus(ctx context.Context, page, perPage int) (domain.MenuPage, error)
}

// Option настраивает Handler.
type Option func(*Handler)

// WithDebug включает текст внутренних ошибок в ответах.
func WithDebug(debug bool) Option {
	return func(h *Handler) {
		h.debug = debug
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRequestTimeout ограничивает время обработки одного запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		h.timeout = timeout
	}
}

// Handler обслуживает /api/menus.
type Handler struct {
	menus   MenuService
	logger  *log.Entry
	debug   bool
	timeout time.Duration
}

// NewHandler создаёт HTTP-обработчик поверх движка меню.
func NewHandler(menus MenuService, opts ...Option) *Handler {
	h := &Handler{
		menus:   menus,
		logger:  log.WithField("component", "http-api"),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes возвращает router со всеми маршрутами API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Route("/api/menus", func(r chi.Router) {
		r.Get("/", h.index)
		r.Post("/", h.store)
		r.Get("/list", h.list)
		r.Post("/reorder", h.reorder)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.destroy)
		r.Get("/{id}/children", h.children)
	})
	return r
}

// GET /api/menus?depth=3&cache=true
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	depth, err := queryInt(r, "depth", menusvc.DefaultTreeDepth)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}
	useCache, err := queryBool(r, "cache", true)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}

	tree, err := h.menus.GetTree(r.Context(), depth, useCache)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}
	if tree == nil {
		tree = []domain.Menu{}
	}
	h.writeData(w, http.StatusOK, tree, "Menus retrieved successfully")
}

// GET /api/menus/list?page=1&per_page=15
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}
	perPage, err := queryInt(r, "per_page", menusvc.DefaultPerPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}

	result, err := h.menus.PaginateMenus(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menus")
		return
	}
	items := result.Items
	if items == nil {
		items = []domain.Menu{}
	}
	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Message: "Menus retrieved successfully",
		Meta: &pageMeta{
			CurrentPage: result.Page,
			PerPage:     result.PerPage,
			Total:       result.Total,
			LastPage:    result.LastPage(),
		},
	})
}

// POST /api/menus
func (h *Handler) store(w http.ResponseWriter, r *http.Request) {
	var input domain.MenuInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, "Failed to create menu")
		return
	}

	created, err := h.menus.CreateMenu(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, "Failed to create menu")
		return
	}
	h.writeData(w, http.StatusCreated, created, "Menu created successfully")
}

// GET /api/menus/{id}
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := menuID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menu")
		return
	}

	found, err := h.menus.FindMenu(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menu")
		return
	}
	h.writeData(w, http.StatusOK, found, "Menu retrieved successfully")
}

// PUT /api/menus/{id}
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := menuID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to update menu")
		return
	}

	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, "Failed to update menu")
		return
	}

	updated, err := h.menus.UpdateMenu(r.Context(), id, req.patch())
	if err != nil {
		h.writeError(w, r, err, "Failed to update menu")
		return
	}
	h.writeData(w, http.StatusOK, updated, "Menu updated successfully")
}

// DELETE /api/menus/{id}
func (h *Handler) destroy(w http.ResponseWriter, r *http.Request) {
	id, err := menuID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete menu")
		return
	}

	deleted, err := h.menus.DeleteMenu(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete menu")
		return
	}
	if !deleted {
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "Failed to delete menu"})
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Menu deleted successfully"})
}

// GET /api/menus/{id}/children
func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	id, err := menuID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menu children")
		return
	}

	children, err := h.menus.GetMenuChildren(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve menu children")
		return
	}
	if children == nil {
		children = []domain.Menu{}
	}
	h.writeData(w, http.StatusOK, children, "Menu children retrieved successfully")
}

// POST /api/menus/reorder
func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, "Failed to reorder menus")
		return
	}

	if _, err := h.menus.ReorderMenus(r.Context(), req.Order); err != nil {
		h.writeError(w, r, err, "Failed to reorder menus")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Menus reordered successfully"})
}
