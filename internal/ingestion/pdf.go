package ingestion

import (
	"bytes"
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// PDFDocument exposes the page count and per-page text layer of a PDF.
// Pages are numbered from 1.
type PDFDocument interface {
	NumPages() int
	PageText(page int) (string, error)
}

// PDFOpener parses a PDF byte buffer.
type PDFOpener interface {
	Open(data []byte) (PDFDocument, error)
}

type PDFOpenerFunc func(data []byte) (PDFDocument, error)

func (f PDFOpenerFunc) Open(data []byte) (PDFDocument, error) { return f(data) }

// TextLayerReader reads embedded text layers with ledongthuc/pdf.
type TextLayerReader struct{}

func (TextLayerReader) Open(data []byte) (doc PDFDocument, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return &ledongthucDoc{r: r}, nil
}

type ledongthucDoc struct {
	r *pdf.Reader
}

func (d *ledongthucDoc) NumPages() int { return d.r.NumPage() }

func (d *ledongthucDoc) PageText(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read page %d text layer: %v", page, r)
		}
	}()
	p := d.r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
