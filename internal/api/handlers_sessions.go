package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/figsync/internal/parser"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/session"
)

type selectRequest struct {
	IDs  []string `json:"ids"`
	Page string   `json:"page"`
}

type messageResponse struct {
	Replies []session.Reply `json:"replies"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	doc, status, err := s.loadDocument(file, header.Filename)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	if name := r.FormValue("name"); name != "" {
		doc.Name = name
	}

	sess, err := s.sessions.Create(doc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SelectPage(""); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleOpenBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}
		doc, _, err := s.loadDocument(f, fh.Filename)
		f.Close()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		sess, err := s.sessions.Create(doc)
		if err == nil {
			err = sess.SelectPage("")
		}
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		results = append(results, map[string]any{
			"filename":    filename,
			"session_id":  sess.ID,
			"document_id": doc.ID,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"sessions": results})
}

// loadDocument reads and parses one uploaded file. The status is the HTTP
// code to report when err is non-nil.
func (s *Server) loadDocument(file multipart.File, rawName string) (*scene.Document, int, error) {
	filename := sanitizeFilename(rawName)
	if !parser.IsSupportedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	doc, err := parser.ParseBytes(data, filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		s.log.Warn("document rejected", "filename", filename, "error", err)
		return nil, http.StatusUnprocessableEntity, err
	}
	return doc, 0, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	snaps := []session.Snapshot{}
	for _, sess := range s.sessions.List() {
		snaps = append(snaps, sess.Snapshot())
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": snaps})
}

// sessionFor resolves the {sessionID} path parameter, writing a 404 when
// it is unknown.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	if len(req.IDs) > 0 {
		err = sess.Select(req.IDs)
	} else {
		err = sess.SelectPage(req.Page)
	}
	if errors.Is(err, session.ErrNodeNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleMessage runs one UI message. Failures are part of the protocol and
// come back as an error reply with status 200.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var msg session.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		jsonError(w, "invalid message: "+err.Error(), http.StatusBadRequest)
		return
	}
	if msg.Type == "" {
		jsonError(w, "message type is required", http.StatusBadRequest)
		return
	}

	replies := sess.Handle(r.Context(), msg)
	writeJSON(w, http.StatusOK, messageResponse{Replies: replies})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	resp := map[string]any{"history": sess.Notifications()}
	if live, ok := sess.LiveNotification(); ok {
		resp["live"] = live
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := sess.EncodeDocument(w); err != nil {
		s.log.Error("encode document", "session_id", sess.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
