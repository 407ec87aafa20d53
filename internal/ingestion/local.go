package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var allowedExt = []string{".pdf", ".docx", ".txt", ".md", ".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff", ".bmp"}

// LoadLocalFiles lists the files under root whose extension has an
// extraction strategy. root may also be a single file.
func LoadLocalFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, a := range allowedExt {
			if ext == a {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	return out, err
}

// OpenLocal reads a file from disk into a SourceDocument; the MIME type is
// sniffed from its content.
func OpenLocal(path string) (*SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewSourceDocument(filepath.Base(path), "", data), nil
}
