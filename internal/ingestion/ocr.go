package ingestion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCREngine recognizes text in an encoded image. progress receives the
// completed fraction in [0,1] and may be called several times.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, lang string, progress func(float64)) (string, error)
}

// PageRasterizer renders one PDF page to an encoded bitmap at scale times
// the page's natural 72 dpi size.
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdfData []byte, page int, scale float64) ([]byte, error)
}

// Tesseract runs OCR through the tesseract C API via gosseract.
type Tesseract struct{}

func (Tesseract) Recognize(ctx context.Context, image []byte, lang string, progress func(float64)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if progress == nil {
		progress = func(float64) {}
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("tesseract language %q: %w", lang, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	progress(0)
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	progress(1)
	return strings.TrimSpace(text), nil
}

// Pdftoppm rasterizes pages with poppler's pdftoppm binary.
type Pdftoppm struct {
	// Path to the pdftoppm binary; "pdftoppm" is looked up in PATH when empty.
	Path string
}

func (p Pdftoppm) Rasterize(ctx context.Context, pdfData []byte, page int, scale float64) ([]byte, error) {
	bin := p.Path
	if bin == "" {
		bin = "pdftoppm"
	}
	dir, err := os.MkdirTemp("", "readease_pdfimg")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, pdfData, 0o600); err != nil {
		return nil, err
	}
	outPrefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	dpi := strconv.FormatFloat(72*scale, 'f', -1, 64)

	// pdftoppm -f N -l N -r DPI -singlefile -png input.pdf outprefix
	cmd := exec.CommandContext(ctx, bin, "-f", n, "-l", n, "-r", dpi, "-singlefile", "-png", in, outPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d failed: %w: %s", page, err, strings.TrimSpace(string(out)))
	}
	return os.ReadFile(outPrefix + ".png")
}
