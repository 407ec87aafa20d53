package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/logging"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

const (
	// DefaultMinTextLayer is the trimmed rune length below which a PDF page
	// is treated as scanned and sent to OCR.
	DefaultMinTextLayer = 30
	// DefaultRasterScale is the upscaling factor used before OCR of a page.
	DefaultRasterScale = 1.6
	DefaultLang        = "eng"
)

// PageHook is told how each PDF page was handled; used for metrics.
type PageHook func(kind Kind, method Method)

// Extractor turns a SourceDocument into ExtractedText.
type Extractor struct {
	pdf          PDFOpener
	ocr          OCREngine
	raster       PageRasterizer
	minTextLayer int
	scale        float64
	onPage       PageHook
	log          *zap.Logger
}

type Option func(*Extractor)

func WithPDFOpener(o PDFOpener) Option { return func(e *Extractor) { e.pdf = o } }
func WithOCR(o OCREngine) Option { return func(e *Extractor) { e.ocr = o } }
func WithRasterizer(r PageRasterizer) Option { return func(e *Extractor) { e.raster = r } }
func WithMinTextLayer(n int) Option { return func(e *Extractor) { e.minTextLayer = n } }
func WithRasterScale(s float64) Option { return func(e *Extractor) { e.scale = s } }
func WithPageHook(h PageHook) Option { return func(e *Extractor) { e.onPage = h } }
func WithLogger(l *zap.Logger) Option { return func(e *Extractor) { e.log = l } }

// NewExtractor returns an Extractor backed by ledongthuc/pdf, tesseract and
// pdftoppm unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		pdf:          TextLayerReader{},
		ocr:          Tesseract{},
		raster:       Pdftoppm{},
		minTextLayer: DefaultMinTextLayer,
		scale:        DefaultRasterScale,
		onPage:       func(Kind, Method) {},
	}
	for _, o := range opts {
		o(e)
	}
	e.log = logging.OrNop(e.log)
	return e
}

// Extract detects the strategy for doc and returns its text. Any failure is
// reported as *ExtractionError. obs may be nil.
func (e *Extractor) Extract(ctx context.Context, doc *SourceDocument, lang string, obs progress.Observer) (ExtractedText, error) {
	obs = progress.OrDiscard(obs)
	if lang == "" {
		lang = DefaultLang
	}
	out := ExtractedText{Kind: doc.Kind}

	var err error
	switch doc.Kind {
	case KindImage:
		var text string
		text, err = e.ocrImage(ctx, doc.Data, lang, obs)
		out.Segments = []Segment{{Method: MethodOCR, Text: text}}
	case KindPDF:
		out.Segments, err = e.extractPDF(ctx, doc, lang, obs)
	case KindWordDocument:
		var text string
		text, err = extractDocx(doc.Data)
		out.Segments = []Segment{{Method: MethodDocx, Text: text}}
	case KindPlainText:
		text := string(doc.Data)
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "�")
		}
		out.Segments = []Segment{{Method: MethodPlain, Text: text}}
	default:
		err = fmt.Errorf("%w: %v", ErrUnsupported, doc.Kind)
	}
	if err != nil {
		return ExtractedText{}, e.fail(doc, err)
	}
	if strings.TrimSpace(out.Text()) == "" {
		return ExtractedText{}, e.fail(doc, ErrNoText)
	}

	e.log.Debug("extracted document",
		zap.String("name", doc.Name),
		zap.Stringer("kind", doc.Kind),
		zap.Int("segments", len(out.Segments)),
		zap.Ints("ocr_pages", out.OCRPages()),
	)
	return out, nil
}

func (e *Extractor) fail(doc *SourceDocument, err error) error {
	var xe *ExtractionError
	if errors.As(err, &xe) {
		return xe
	}
	return &ExtractionError{Name: doc.Name, Kind: doc.Kind, Err: err}
}

func (e *Extractor) ocrImage(ctx context.Context, img []byte, lang string, obs progress.Observer) (string, error) {
	text, err := e.ocr.Recognize(ctx, img, lang, func(f float64) {
		obs.Notify(progress.Recognizing(f))
	})
	if err != nil {
		return "", err
	}
	e.onPage(KindImage, MethodOCR)
	return text, nil
}

// extractPDF walks pages in order. A page whose trimmed text layer is
// shorter than minTextLayer runes is rasterized and recognized instead.
func (e *Extractor) extractPDF(ctx context.Context, doc *SourceDocument, lang string, obs progress.Observer) ([]Segment, error) {
	pd, err := e.pdf.Open(doc.Data)
	if err != nil {
		return nil, err
	}
	total := pd.NumPages()
	segments := make([]Segment, 0, total)

	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs.Notify(progress.PageEvent(page, total))

		layer, err := pd.PageText(page)
		if err != nil {
			// an unreadable text layer is handled like a scanned page
			e.log.Debug("text layer unreadable", zap.Int("page", page), zap.Error(err))
			layer = ""
		}
		layer = strings.TrimSpace(layer)
		if utf8.RuneCountInString(layer) >= e.minTextLayer {
			segments = append(segments, Segment{Page: page, Method: MethodTextLayer, Text: layer})
			e.onPage(KindPDF, MethodTextLayer)
			continue
		}

		img, err := e.raster.Rasterize(ctx, doc.Data, page, e.scale)
		if err != nil {
			return nil, &ExtractionError{Name: doc.Name, Kind: doc.Kind, Page: page, Err: err}
		}
		text, err := e.ocr.Recognize(ctx, img, lang, func(f float64) {
			obs.Notify(progress.Recognizing(f))
		})
		if err != nil {
			return nil, &ExtractionError{Name: doc.Name, Kind: doc.Kind, Page: page, Err: err}
		}
		segments = append(segments, Segment{Page: page, Method: MethodOCR, Text: strings.TrimSpace(text)})
		e.onPage(KindPDF, MethodOCR)
	}
	return segments, nil
}
