package ingestion

import "strings"

// SourceDocument is an input file as supplied by the file selection surface.
// It is treated as immutable once built.
type SourceDocument struct {
	Name     string
	MIMEType string
	Data     []byte
	Kind     Kind
}

func NewSourceDocument(name, mimeType string, data []byte) *SourceDocument {
	return &SourceDocument{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
		Kind:     DetectKind(name, mimeType, data),
	}
}

// Method records how a segment was obtained.
type Method string

const (
	MethodTextLayer Method = "text-layer"
	MethodOCR       Method = "ocr"
	MethodDocx      Method = "docx"
	MethodPlain     Method = "plain"
)

// Segment is the text of one page (PDF) or of the whole file.
type Segment struct {
	Page   int    `json:"page,omitempty"`
	Method Method `json:"method"`
	Text   string `json:"text"`
}

// ExtractedText is the ordered list of segments extracted from a document.
type ExtractedText struct {
	Kind     Kind      `json:"-"`
	Segments []Segment `json:"segments"`
}

// SegmentSeparator joins segments in Text.
const SegmentSeparator = "\n\n"

// Text concatenates non-blank segments in order, separated by a blank line.
func (e ExtractedText) Text() string {
	parts := make([]string, 0, len(e.Segments))
	for _, s := range e.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, SegmentSeparator)
}

// OCRPages returns the page numbers that were recognized with OCR.
func (e ExtractedText) OCRPages() []int {
	var pages []int
	for _, s := range e.Segments {
		if s.Method == MethodOCR && s.Page > 0 {
			pages = append(pages, s.Page)
		}
	}
	return pages
}
