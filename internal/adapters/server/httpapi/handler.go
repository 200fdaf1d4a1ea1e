// Package httpapi provides the REST HTTP adapter for the server surfaces.
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

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/evanschultz/join/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	service        common.BoardService
	allowAnonymous bool
	schemas        schemas
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter. Unless allowAnonymous is set,
// every route outside `auth/` requires a bearer token.
func NewHandler(service common.BoardService, allowAnonymous bool) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("board service is required")
	}
	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Handler{
		service:        service,
		allowAnonymous: allowAnonymous,
		schemas:        compiled,
	}, nil
}

// ServeHTTP authenticates and routes one versioned API request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path)
	if len(segments) > 0 && segments[0] == "auth" {
		h.routeAuth(w, r, segments[1:])
		return
	}
	if !h.allowAnonymous {
		ctx, _, err := h.service.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		r = r.WithContext(ctx)
	}

	switch {
	case len(segments) == 1 && segments[0] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleListTasks(w, r)
		case http.MethodPost:
			h.handleCreateTask(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(segments) == 2 && segments[0] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleGetTask(w, r, segments[1])
		case http.MethodPatch:
			h.handleUpdateTask(w, r, segments[1])
		case http.MethodDelete:
			h.handleDeleteTask(w, r, segments[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(segments) == 3 && segments[0] == "tasks" && segments[2] == "status":
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w, http.MethodPatch)
			return
		}
		h.handleMoveTask(w, r, segments[1])
	case len(segments) == 5 && segments[0] == "tasks" && segments[2] == "subtasks" && segments[4] == "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleToggleSubtask(w, r, segments[1], segments[3])
	case len(segments) == 1 && segments[0] == "contacts":
		switch r.Method {
		case http.MethodGet:
			h.handleListContacts(w, r)
		case http.MethodPost:
			h.handleCreateContact(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(segments) == 2 && segments[0] == "contacts":
		switch r.Method {
		case http.MethodPatch:
			h.handleUpdateContact(w, r, segments[1])
		case http.MethodDelete:
			h.handleDeleteContact(w, r, segments[1])
		default:
			writeMethodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	case len(segments) == 1 && segments[0] == "summary":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleSummary(w, r)
	case len(segments) == 1 && segments[0] == "search":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleSearch(w, r)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// routeAuth serves the unauthenticated `auth/*` routes.
func (h *Handler) routeAuth(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) != 1 {
		writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	switch segments[0] {
	case "signup":
		var req common.SignUpRequest
		if err := h.decodeValidated(w, r, h.schemas.signUp, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		contact, err := h.service.SignUp(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, contact)
	case "login":
		var req common.LoginRequest
		if err := h.decodeValidated(w, r, h.schemas.login, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		session, err := h.service.Login(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case "guest":
		session, err := h.service.GuestLogin(r.Context())
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
	}
}

// handleListTasks serves GET `/tasks`, optionally filtered by `?status=`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.Status == status {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req common.CreateTaskRequest
	if err := h.decodeValidated(w, r, h.schemas.createTask, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.service.CreateTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask serves PATCH `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request, id string) {
	var req common.UpdateTaskRequest
	if err := h.decodeValidated(w, r, h.schemas.updateTask, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ID = id
	task, err := h.service.UpdateTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTask serves PATCH `/tasks/{id}/status`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request, id string) {
	var req common.MoveTaskRequest
	if err := h.decodeValidated(w, r, h.schemas.moveTask, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ID = id
	task, err := h.service.MoveTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleToggleSubtask serves POST `/tasks/{id}/subtasks/{index}/toggle`.
func (h *Handler) handleToggleSubtask(w http.ResponseWriter, r *http.Request, id, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: fmt.Sprintf("subtask index %q must be a non-negative integer", rawIndex),
		})
		return
	}
	task, err := h.service.ToggleSubtask(r.Context(), id, index)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleListContacts serves GET `/contacts`.
func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListContacts(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// handleCreateContact serves POST `/contacts`.
func (h *Handler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req common.ContactRequest
	if err := h.decodeValidated(w, r, h.schemas.contact, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	contact, err := h.service.CreateContact(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// handleUpdateContact serves PATCH `/contacts/{id}`.
func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request, id string) {
	var req common.ContactRequest
	if err := h.decodeValidated(w, r, h.schemas.contact, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	contact, err := h.service.UpdateContact(r.Context(), id, req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// handleDeleteContact serves DELETE `/contacts/{id}`.
func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteContact(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary serves GET `/summary`.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.URL.Query().Get("assignee"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleSearch serves GET `/search?q=`.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.SearchTasks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// splitPath canonicalizes one request path into non-empty segments.
func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// bearerToken extracts the token from an `Authorization: Bearer` header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", `Bearer realm="join"`)
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "unauthorized",
			Message: err.Error(),
			Hint:    "Obtain a token from POST /auth/login or /auth/guest.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrConflict):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeValidated reads one JSON body, checks it against schema, then decodes it into out.
func (h *Handler) decodeValidated(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", schemaErrorMessage(err), common.ErrInvalidRequest)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	select {
	case <-r.Context().Done():
		return fmt.Errorf("request canceled: %w", r.Context().Err())
	default:
		return nil
	}
}
