package http

import (
	"context"
	"net/http"

	"github.com/agendei/agendei/internal/port/database"
)

// ---------------------------------------------------------------------------
// Generic CRUD handler factories
//
// Each factory resolves the caller's tenant handle first, so the wrapped
// function only ever sees records of that tenant.
// ---------------------------------------------------------------------------

type scopeFunc func(r *http.Request) (database.Scoped, bool)

// handleList creates a handler that lists resources and returns JSON.
func handleList[T any](scope scopeFunc, listFn func(ctx context.Context, h database.Scoped, r *http.Request) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		items, err := listFn(r.Context(), h, r)
		if err != nil {
			writeDomainError(w, r, err, "not found")
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves a single resource by URL param "id".
func handleGet[T any](scope scopeFunc, getFn func(ctx context.Context, h database.Scoped, id string) (*T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		item, err := getFn(r.Context(), h, urlParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleCreate creates a handler that decodes a JSON body and creates a resource.
func handleCreate[Req any, Res any](scope scopeFunc, createFn func(ctx context.Context, h database.Scoped, req Req) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		res, err := createFn(r.Context(), h, req)
		if err != nil {
			writeDomainError(w, r, err, "referenced record not found")
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// handleUpdate creates a handler that decodes a JSON body and updates a resource by URL param "id".
func handleUpdate[Req any, Res any](scope scopeFunc, updateFn func(ctx context.Context, h database.Scoped, id string, req Req) (*Res, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		res, err := updateFn(r.Context(), h, urlParam(r, "id"), req)
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleAction creates a handler for a body-less state change on resource "id".
func handleAction[Res any](scope scopeFunc, actionFn func(ctx context.Context, h database.Scoped, id string) (*Res, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		res, err := actionFn(r.Context(), h, urlParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleDelete creates a handler that deletes a resource by URL param "id".
func handleDelete(scope scopeFunc, deleteFn func(ctx context.Context, h database.Scoped, id string) error, notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := scope(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := deleteFn(r.Context(), h, urlParam(r, "id")); err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
