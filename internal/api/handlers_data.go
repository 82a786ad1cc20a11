package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/figsync/internal/session"
	"github.com/dgallion1/figsync/internal/store"
)

// handleListSharedData lists what a document has persisted.
func (s *Server) handleListSharedData(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc := store.DocumentKey(docID)
	ctx := r.Context()

	names, err := s.store.Keys(ctx, doc, session.Namespace)
	if err != nil {
		jsonError(w, "failed to list shared data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	entries := make([]map[string]any, 0, len(names))
	for _, name := range names {
		value, ok, err := s.store.Get(ctx, store.Key{Document: doc, Namespace: session.Namespace, Name: name})
		if errors.Is(err, store.ErrInvalidKey) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			jsonError(w, "failed to read shared data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			continue
		}
		entries = append(entries, map[string]any{"name": name, "value": value})
	}

	writeJSON(w, http.StatusOK, map[string]any{"document_id": docID, "data": entries})
}

// handleDeleteSharedData removes everything a document has persisted.
func (s *Server) handleDeleteSharedData(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc := store.DocumentKey(docID)
	ctx := r.Context()

	names, err := s.store.Keys(ctx, doc, session.Namespace)
	if err != nil {
		jsonError(w, "failed to list shared data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	deleted := 0
	for _, name := range names {
		err := s.store.Delete(ctx, store.Key{Document: doc, Namespace: session.Namespace, Name: name})
		if errors.Is(err, store.ErrInvalidKey) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			s.log.Warn("delete shared data", "document_id", docID, "name", name, "error", err)
			continue
		}
		deleted++
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
