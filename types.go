package main

import "time"

// ======================= CONFIG =======================

const (
	defaultAddr       = ":8080"
	defaultMaxUpload  = 64 << 20 // per-request multipart cap in bytes
	defaultSessionTTL = 30 * time.Minute

	downloadPrefix = "fusion_documento" // merged output filename prefix
	timestampFmt   = "20060102_150405"

	sessionCookie = "fusion_sid"
)

// Accepted file kinds. Everything else is rejected at intake, or by the
// merge engine if it somehow gets that far.
const (
	kindPDF  = "application/pdf"
	kindPNG  = "image/png"
	kindJPEG = "image/jpeg"
)

// ======================= DATA TYPES ===================

// FileRecord is one uploaded file, held in memory for the session.
// Immutable after intake except for its position in the list.
type FileRecord struct {
	ID   string
	Name string
	Kind string // kindPDF, kindPNG or kindJPEG
	Size int64
	Data []byte
}

// MergeOutput is the finalized result of the most recent merge,
// stashed per session until the browser fetches it.
type MergeOutput struct {
	ID    string
	Name  string // fusion_documento_<timestamp>.pdf
	Pages int
	Data  []byte
}

type reorderRequest struct {
	Order []string `json:"order"` // full id permutation of the current list
}

type removeRequest struct {
	ID string `json:"id"`
}

type moveRequest struct {
	ID string `json:"id"`
	To int    `json:"to"` // target index, clamped to the list bounds
}

// fileView is the JSON shape of a list entry returned to the UI.
type fileView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

type listResponse struct {
	Files []fileView `json:"files"`
}
