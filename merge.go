package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Fixed reference page for image-only pages: ISO A4 portrait, in points.
const (
	pageW      = 595.28
	pageH      = 841.89
	pageMargin = 40.0
)

// Merge failure classes. Per-file failures are wrapped in a FileError so the
// caller can tell the user which file to remove.
var (
	ErrNoFiles         = errors.New("no files to merge")
	ErrNoPages         = errors.New("inputs contain no pages")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDecode          = errors.New("cannot decode file")
	ErrEmbed           = errors.New("cannot embed image")
	ErrSerialize       = errors.New("cannot assemble output")
)

// FileError tags a merge failure with the name of the offending file.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *FileError) Unwrap() error { return e.Err }

func failFile(name string, class, cause error) error {
	if cause == nil {
		return &FileError{Name: name, Err: class}
	}
	return &FileError{Name: name, Err: fmt.Errorf("%w: %v", class, cause)}
}

// Merge builds a single PDF from the records in list order: PDF sources
// contribute all of their pages in their internal order, images contribute one
// A4 page each with the image scaled to the printable area and centered.
//
// Files are processed strictly one at a time because output page order is the
// input order. Any failure aborts the whole merge; no partial output is
// produced. ctx is checked between files so a caller may cancel.
func Merge(ctx context.Context, files []FileRecord) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var parts [][]byte // each a complete single- or multi-page document
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch f.Kind {
		case kindPDF:
			n, err := pdfapi.PageCount(bytes.NewReader(f.Data), conf)
			if err != nil {
				return nil, failFile(f.Name, ErrDecode, err)
			}
			if n == 0 {
				continue // contributes nothing
			}
			parts = append(parts, f.Data)
		case kindPNG, kindJPEG:
			page, err := imagePagePDF(f)
			if err != nil {
				return nil, err
			}
			parts = append(parts, page)
		default:
			return nil, failFile(f.Name, ErrUnsupportedType, nil)
		}
	}

	switch len(parts) {
	case 0:
		return nil, ErrNoPages
	case 1:
		// already a complete document, nothing to concatenate
		return parts[0], nil
	}

	rsc := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		rsc[i] = bytes.NewReader(p)
	}
	var out bytes.Buffer
	if err := pdfapi.MergeRaw(rsc, &out, false, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return out.Bytes(), nil
}

// imagePagePDF renders one raster image onto a single A4 page and returns the
// serialized one-page document, ready for concatenation.
func imagePagePDF(f FileRecord) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, failFile(f.Name, ErrDecode, err)
	}
	b := img.Bounds()
	w, h, x, y := fitToPage(float64(b.Dx()), float64(b.Dy()))

	doc := gofpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	opts := gofpdf.ImageOptions{ImageType: imageType(f.Kind)}
	doc.RegisterImageOptionsReader(f.ID, opts, bytes.NewReader(f.Data))
	if doc.Err() {
		return nil, failFile(f.Name, ErrEmbed, doc.Error())
	}
	doc.ImageOptions(f.ID, x, y, w, h, false, opts, 0, "")
	if doc.Err() {
		return nil, failFile(f.Name, ErrEmbed, doc.Error())
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, failFile(f.Name, ErrSerialize, err)
	}
	return buf.Bytes(), nil
}

// fitToPage computes the drawn size and position for an image with natural
// pixel dimensions imgW x imgH: uniform scale capped at 1 (never upscale),
// constrained to the printable area, centered on the page.
func fitToPage(imgW, imgH float64) (w, h, x, y float64) {
	scale := math.Min(1, math.Min((pageW-2*pageMargin)/imgW, (pageH-2*pageMargin)/imgH))
	w, h = imgW*scale, imgH*scale
	x, y = (pageW-w)/2, (pageH-h)/2
	return
}

func imageType(kind string) string {
	if kind == kindPNG {
		return "PNG"
	}
	return "JPEG"
}

// pageCount reports the number of pages in a serialized document.
func pageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return pdfapi.PageCount(bytes.NewReader(data), conf)
}
