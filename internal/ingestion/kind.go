package ingestion

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the extraction strategy selected for a source document.
type Kind int

const (
	KindPlainText Kind = iota
	KindImage
	KindPDF
	KindWordDocument
)

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain-text"
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindWordDocument:
		return "word-document"
	default:
		return "unknown"
	}
}

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DetectKind picks a Kind from the declared MIME type, falling back to
// content sniffing when the declared type is missing or generic. A .docx
// extension always selects the word-document parser since browsers often
// report such files as application/zip or octet-stream.
func DetectKind(name, mimeType string, head []byte) Kind {
	if strings.EqualFold(filepath.Ext(name), ".docx") {
		return KindWordDocument
	}
	mt := normalizeMIME(mimeType)
	if mt == "" || mt == "application/octet-stream" {
		mt = sniffMIME(head)
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case mt == mimePDF:
		return KindPDF
	case mt == mimeDocx:
		return KindWordDocument
	default:
		return KindPlainText
	}
}

func normalizeMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func sniffMIME(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := normalizeMIME(http.DetectContentType(head))
	if mt != "application/octet-stream" && mt != "application/zip" {
		return mt
	}
	return normalizeMIME(mimetype.Detect(head).String())
}
