// Package handlers implements the api/v1 HTTP surface on top of a
// data.Store. Requests and responses are JSON; errors are reported as a
// JSON body with a single "error" field.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/kslattery/todolistd/data"
)

// notFoundMessage is the body text for every 404.
const notFoundMessage = "Not found."

// Handler holds what the endpoint methods need: the store and a logger.
type Handler struct {
	Store data.Store
	Log   *log.Logger
}

// ErrorMessage holds an error that is sent to the client as JSON.
type ErrorMessage struct {
	Error string `json:"error"`
}

// listRequest is the decoded body of a list create or update. Pointers
// distinguish absent fields from zero values, which matters for PATCH.
type listRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// itemRequest is the decoded body of an item create or update.
type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ToDoList    *string `json:"to_do_list"`
	Priority    *int    `json:"priority"`
}

// ListLists returns every todo list, ordered by name.
func (h *Handler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.Store.ListLists(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.printSuccess(w, http.StatusOK, lists)
}

// CreateList creates a todo list. A name collision is a client error.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil {
		h.printError(w, http.StatusBadRequest, "name: field is required")
		return
	}
	if req.Description == nil {
		h.printError(w, http.StatusBadRequest, "description: field is required")
		return
	}
	if err := data.ValidateList(*req.Name, *req.Description); err != nil {
		h.storeError(w, err)
		return
	}
	l, err := h.Store.CreateList(r.Context(), *req.Name, *req.Description)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.printSuccess(w, http.StatusCreated, l)
}

// GetList returns a single todo list by name.
func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	l, ok, err := h.Store.GetList(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, l)
}

// PutList replaces a todo list's mutable fields. The name in the body must
// match the name in the URL: names are immutable.
func (h *Handler) PutList(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil || req.Description == nil {
		h.printError(w, http.StatusBadRequest, "name and description fields are required")
		return
	}
	if *req.Name != name {
		h.printError(w, http.StatusBadRequest, "name: the name field may not be updated")
		return
	}
	if err := data.ValidateDescription(*req.Description); err != nil {
		h.storeError(w, err)
		return
	}
	l, ok, err := h.Store.UpdateList(r.Context(), name, *req.Description)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, l)
}

// PatchList updates any subset of a todo list's mutable fields. A name
// field is tolerated only when it matches the current name.
func (h *Handler) PatchList(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name != nil && *req.Name != name {
		h.printError(w, http.StatusBadRequest, "name: the name field may not be updated")
		return
	}
	if req.Description == nil {
		// Nothing to change; behave like a read.
		h.GetList(w, r)
		return
	}
	if err := data.ValidateDescription(*req.Description); err != nil {
		h.storeError(w, err)
		return
	}
	l, ok, err := h.Store.UpdateList(r.Context(), name, *req.Description)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, l)
}

// DeleteList deletes a todo list and, cascading, all of its items.
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteList(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetListWithItems returns a todo list together with its items in
// ascending priority order.
func (h *Handler) GetListWithItems(w http.ResponseWriter, r *http.Request) {
	lwi, ok, err := h.Store.GetListWithItems(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, lwi)
}

// ListItems returns every todo item, ordered by list and then priority.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.printSuccess(w, http.StatusOK, items)
}

// CreateItem creates a todo item, placing it at the requested priority
// within its list. A colliding priority shifts existing items down.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil || req.Description == nil || req.ToDoList == nil || req.Priority == nil {
		h.printError(w, http.StatusBadRequest,
			"name, description, to_do_list, and priority fields are required")
		return
	}
	item := data.ToDoItem{
		Name:        *req.Name,
		Description: *req.Description,
		ToDoList:    *req.ToDoList,
		Priority:    *req.Priority,
	}
	if err := data.ValidateItem(item); err != nil {
		h.storeError(w, err)
		return
	}
	created, err := h.Store.CreateItem(r.Context(), item)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.printSuccess(w, http.StatusCreated, created)
}

// GetItem returns a single todo item by name.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok, err := h.Store.GetItem(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, item)
}

// PutItem replaces a todo item's mutable fields, re-placing it when its
// list or priority changed.
func (h *Handler) PutItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil || req.Description == nil || req.ToDoList == nil || req.Priority == nil {
		h.printError(w, http.StatusBadRequest,
			"name, description, to_do_list, and priority fields are required")
		return
	}
	if *req.Name != name {
		h.printError(w, http.StatusBadRequest, "name: the name field may not be updated")
		return
	}
	h.updateItem(w, r, name, data.ItemPatch{
		Description: req.Description,
		ToDoList:    req.ToDoList,
		Priority:    req.Priority,
	})
}

// PatchItem updates any subset of a todo item's mutable fields.
func (h *Handler) PatchItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name != nil && *req.Name != name {
		h.printError(w, http.StatusBadRequest, "name: the name field may not be updated")
		return
	}
	h.updateItem(w, r, name, data.ItemPatch{
		Description: req.Description,
		ToDoList:    req.ToDoList,
		Priority:    req.Priority,
	})
}

// updateItem validates a patch and applies it; shared by PUT and PATCH.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, name string, patch data.ItemPatch) {
	if patch.Description != nil {
		if err := data.ValidateDescription(*patch.Description); err != nil {
			h.storeError(w, err)
			return
		}
	}
	if patch.ToDoList != nil {
		if err := data.ValidateName(*patch.ToDoList); err != nil {
			h.printError(w, http.StatusBadRequest, "to_do_list: must name a todo list")
			return
		}
	}
	if patch.Priority != nil {
		if err := data.ValidatePriority(*patch.Priority); err != nil {
			h.storeError(w, err)
			return
		}
	}
	item, ok, err := h.Store.UpdateItem(r.Context(), name, patch)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	h.printSuccess(w, http.StatusOK, item)
}

// DeleteItem deletes a todo item.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteItem(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !ok {
		h.printError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON request body. On failure it writes a 400 and
// returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.printError(w, http.StatusBadRequest, "problem parsing JSON request body")
		return false
	}
	return true
}

// storeError maps an error coming out of validation or the store to a
// response. Validation, duplicate-name, and referential errors are client
// errors; anything else is a 500 and gets logged.
func (h *Handler) storeError(w http.ResponseWriter, err error) {
	var ve *data.ValidationError
	switch {
	case errors.As(err, &ve):
		h.printError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, data.ErrDuplicateName):
		h.printError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, data.ErrNoSuchList):
		h.printError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error("storage failure", "err", err)
		h.printError(w, http.StatusInternalServerError, "internal server error")
	}
}

// printError prints an error to w as JSON with the given response code.
func (h *Handler) printError(w http.ResponseWriter, code int, msg string) {
	h.printSuccess(w, code, &ErrorMessage{Error: msg})
}

// printSuccess prints v to w as JSON with the given response code.
func (h *Handler) printSuccess(w http.ResponseWriter, code int, v any) {
	// Tell the client to take the Content-Type header seriously.
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("could not encode response to JSON", "err", err)
	}
}
