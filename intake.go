package main

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// readUploads drains the "files" parts of a parsed multipart form into
// FileRecords. All-or-nothing: one unsupported or unreadable part rejects the
// whole batch, matching the merge engine's abort semantics.
func readUploads(form *multipart.Form) ([]FileRecord, error) {
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}
	recs := make([]FileRecord, 0, len(headers))
	for _, fh := range headers {
		part, err := fh.Open()
		if err != nil {
			return nil, failFile(fh.Filename, ErrDecode, err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, failFile(fh.Filename, ErrDecode, err)
		}
		kind, err := normalizeKind(fh.Header.Get("Content-Type"), data)
		if err != nil {
			return nil, &FileError{Name: fh.Filename, Err: err}
		}
		recs = append(recs, FileRecord{
			ID:   uuid.NewString(),
			Name: fh.Filename,
			Kind: kind,
			Size: int64(len(data)),
			Data: data,
		})
	}
	return recs, nil
}

// normalizeKind maps a declared content type onto the accepted set.
// Empty or octet-stream declarations fall back to sniffing the bytes,
// since browsers and proxies use octet-stream for anything they do not
// recognize.
func normalizeKind(declared string, data []byte) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		ct, _, _ = strings.Cut(http.DetectContentType(data), ";")
	}
	switch ct {
	case kindPDF, kindPNG, kindJPEG:
		return ct, nil
	case "image/jpg": // common misspelling
		return kindJPEG, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
}
