package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/obsidianstack/todos/server/internal/config"
	"github.com/obsidianstack/todos/server/internal/metrics"
	"github.com/obsidianstack/todos/server/internal/notify"
	"github.com/obsidianstack/todos/server/internal/store"
)

const (
	healthMessage = "Simple CRUD API for todos is up and running"

	// maxBodyBytes caps request bodies for POST and PATCH.
	maxBodyBytes = 1 << 20
)

// Options carries the optional collaborators of the API. The zero value
// serves the todo routes only, with config defaults for CORS and paging.
type Options struct {
	// DefaultLimit is the page size used when ?limit is absent or invalid.
	DefaultLimit int

	// AllowedOrigins feeds the CORS policy.
	AllowedOrigins []string

	// Notifier receives an event after every successful mutation.
	Notifier notify.Notifier

	// Metrics counts operation outcomes and is served on /metrics.
	Metrics *metrics.Registry

	// Stream is mounted on /ws/todos.
	Stream http.Handler
}

// Handler is the HTTP handler for every todos-server endpoint.
type Handler struct {
	store        *store.Store
	defaultLimit int
	notifier     notify.Notifier
	metrics      *metrics.Registry
	router       *mux.Router
	chain        http.Handler
	now          func() time.Time
}

// New creates a Handler wired to the given store and registers all routes.
func New(st *store.Store, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = config.DefaultPageLimit
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{config.DefaultCORSOrigin}
	}

	h := &Handler{
		store:        st,
		defaultLimit: opts.DefaultLimit,
		notifier:     opts.Notifier,
		metrics:      opts.Metrics,
		router:       mux.NewRouter(),
		now:          func() time.Time { return time.Now().UTC() },
	}

	r := h.router
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/todos", h.listTodos).Methods(http.MethodGet)
	r.HandleFunc("/todos", h.createTodo).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id}", h.getTodo).Methods(http.MethodGet)
	r.HandleFunc("/todos/{id}", h.updateTodo).Methods(http.MethodPatch)
	r.HandleFunc("/todos/{id}", h.deleteTodo).Methods(http.MethodDelete)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}
	if opts.Stream != nil {
		r.Handle("/ws/todos", opts.Stream).Methods(http.MethodGet)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	h.chain = logRequests(corsPolicy(opts.AllowedOrigins).Handler(r))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, MessageResponse{Status: statusSuccess, Message: healthMessage})
}

// listTodos returns GET /todos: one page of todos in insertion order.
func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	page, limit := h.paging(r.URL.Query())
	todos := h.store.List(page, limit)
	h.metrics.Observe("list", "ok")

	jsonResp(w, http.StatusOK, TodoListResponse{
		Status:  statusSuccess,
		Results: len(todos),
		Todos:   todos,
	})
}

// createTodo handles POST /todos.
func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := decodeBody(r, &req); err != nil {
		h.metrics.Observe("create", "bad_request")
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil {
		h.metrics.Observe("create", "bad_request")
		jsonErr(w, http.StatusBadRequest, "title is required")
		return
	}
	var content string
	if req.Content != nil {
		content = *req.Content
	}

	todo, err := h.store.Create(*req.Title, content)
	if errors.Is(err, store.ErrConflict) {
		h.metrics.Observe("create", "conflict")
		jsonErr(w, http.StatusConflict, fmt.Sprintf("Todo with title: '%s' already exists", *req.Title))
		return
	}
	if err != nil {
		h.internalError(w, "create", err)
		return
	}

	h.metrics.Observe("create", "ok")
	h.emit(notify.Created, todo)
	jsonResp(w, http.StatusCreated, single(todo))
}

// getTodo handles GET /todos/{id}.
func (h *Handler) getTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r, "get")
	if !ok {
		return
	}

	todo, err := h.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, "get", id)
		return
	}
	if err != nil {
		h.internalError(w, "get", err)
		return
	}

	h.metrics.Observe("get", "ok")
	jsonResp(w, http.StatusOK, single(todo))
}

// updateTodo handles PATCH /todos/{id}.
func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r, "update")
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if err := decodeBody(r, &req); err != nil {
		h.metrics.Observe("update", "bad_request")
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.store.Update(id, store.Patch{
		Title:     req.Title,
		Content:   req.Content,
		Completed: req.Completed,
	})
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, "update", id)
		return
	}
	if err != nil {
		h.internalError(w, "update", err)
		return
	}

	h.metrics.Observe("update", "ok")
	h.emit(notify.Updated, todo)
	jsonResp(w, http.StatusOK, single(todo))
}

// deleteTodo handles DELETE /todos/{id}.
func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r, "delete")
	if !ok {
		return
	}

	removed, err := h.store.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, "delete", id)
		return
	}
	if err != nil {
		h.internalError(w, "delete", err)
		return
	}

	h.metrics.Observe("delete", "ok")
	h.emit(notify.Deleted, removed)
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ----------------------------------------------------------------

// paging reads ?page and ?limit. If either is present but not a
// non-negative integer, both fall back to their defaults.
func (h *Handler) paging(q url.Values) (page, limit int) {
	page, limit = 1, h.defaultLimit

	p, okP := parseCount(q.Get("page"), page)
	l, okL := parseCount(q.Get("limit"), limit)
	if !okP || !okL {
		return page, limit
	}
	return p, l
}

func parseCount(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def, false
	}
	return n, true
}

// todoID extracts {id} and normalizes it to the canonical UUID form. On
// failure it writes a 400 and returns ok=false.
func (h *Handler) todoID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		h.metrics.Observe(op, "bad_request")
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("Invalid todo ID: %s", raw))
		return "", false
	}
	return id.String(), true
}

func (h *Handler) notFound(w http.ResponseWriter, op, id string) {
	h.metrics.Observe(op, "not_found")
	jsonErr(w, http.StatusNotFound, fmt.Sprintf("Todo with ID: %s not found", id))
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.metrics.Observe(op, "error")
	jsonErr(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) emit(kind string, todo store.Todo) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(notify.Event{Type: kind, Todo: todo, At: h.now()})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func single(t store.Todo) SingleTodoResponse {
	return SingleTodoResponse{Status: statusSuccess, Data: TodoData{Todo: t}}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, MessageResponse{Status: statusFail, Message: msg})
}
