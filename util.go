package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// writeErr sends a JSON error body, tagging it with the offending file's name
// when the error carries one.
func writeErr(w http.ResponseWriter, code int, err error) {
	body := struct {
		Error string `json:"error"`
		File  string `json:"file,omitempty"`
	}{Error: err.Error()}
	var fe *FileError
	if errors.As(err, &fe) {
		body.File = fe.Name
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
