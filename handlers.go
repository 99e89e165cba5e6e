package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newMux wires every route against one SessionStore.
func newMux(sessions *SessionStore, maxUpload int64) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleIndex(sessions))
	mux.HandleFunc("/upload", handleUpload(sessions, maxUpload))
	mux.HandleFunc("/reorder", handleReorder(sessions))
	mux.HandleFunc("/move", handleMove(sessions))
	mux.HandleFunc("/remove", handleRemove(sessions))
	mux.HandleFunc("/merge", handleMerge(sessions))
	mux.HandleFunc("/download/", handleDownload(sessions))
	mux.HandleFunc("/file", handleFile(sessions))
	return mux
}

// sessionList resolves the caller's file list from the session cookie,
// minting a new session when there is none.
func sessionList(sessions *SessionStore, w http.ResponseWriter, r *http.Request) *FileList {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return sessions.Get(c.Value)
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Get(id)
}

func handleIndex(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		list := sessionList(sessions, w, r)
		data := struct{ Files []FileRecord }{Files: list.List()}
		_ = page.Execute(w, data)
	}
}

func handleUpload(sessions *SessionStore, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := sessionList(sessions, w, r)

		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("bad upload: %v", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		recs, err := readUploads(r.MultipartForm)
		if err != nil {
			writeErr(w, httpStatus(err), err)
			return
		}
		if err := list.Add(recs...); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		log.Printf("[upload] %d files, list now %d", len(recs), list.Len())
		writeList(w, list)
	}
}

func handleReorder(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := sessionList(sessions, w, r)
		var in reorderRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, errors.New("bad request"))
			return
		}
		if err := list.Reorder(in.Order); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeList(w, list)
	}
}

// handleMove shifts one file to a target index, the single-element
// counterpart of /reorder for clients that do not track the whole list.
func handleMove(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := sessionList(sessions, w, r)
		var in moveRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, errors.New("bad request"))
			return
		}
		if !list.Move(in.ID, in.To) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("unknown file id %s", in.ID))
			return
		}
		writeList(w, list)
	}
}

func handleRemove(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := sessionList(sessions, w, r)
		var in removeRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, errors.New("bad request"))
			return
		}
		if !list.Remove(in.ID) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("unknown file id %s", in.ID))
			return
		}
		writeList(w, list)
	}
}

func handleMerge(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := sessionList(sessions, w, r)
		files := list.List()

		start := time.Now()
		data, err := Merge(r.Context(), files)
		if err != nil {
			log.Printf("[merge] failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
			writeErr(w, httpStatus(err), err)
			return
		}
		pages, err := pageCount(data)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrSerialize, err))
			return
		}

		out := &MergeOutput{
			ID:    uuid.NewString(),
			Name:  fmt.Sprintf("%s_%s.pdf", downloadPrefix, time.Now().Format(timestampFmt)),
			Pages: pages,
			Data:  data,
		}
		list.SetMerged(out)
		log.Printf("[merge] %d files -> %d pages, %d bytes in %v",
			len(files), pages, len(data), time.Since(start).Round(time.Millisecond))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":       1,
			"download": "/download/" + out.ID,
			"name":     out.Name,
			"pages":    pages,
		})
	}
}

func handleDownload(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := sessionList(sessions, w, r)
		id := strings.TrimPrefix(r.URL.Path, "/download/")
		out, ok := list.Merged(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
		_, _ = w.Write(out.Data)
	}
}

// handleFile serves a stored upload inline for the preview pane.
func handleFile(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := sessionList(sessions, w, r)
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		rec, ok := list.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", rec.Kind)
		_, _ = w.Write(rec.Data)
	}
}

// httpStatus maps the merge error taxonomy onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrNoPages):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrDecode), errors.Is(err, ErrEmbed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeList(w http.ResponseWriter, list *FileList) {
	resp := listResponse{Files: []fileView{}}
	for _, r := range list.List() {
		resp.Files = append(resp.Files, fileView{ID: r.ID, Name: r.Name, Kind: r.Kind, Size: r.Size})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
