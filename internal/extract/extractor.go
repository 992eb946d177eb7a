// Package extract provides text extraction, expense file parsing, receipt field
// extraction, and policy chunking.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that need OCR or another unsupported decoder.
var ErrUnsupportedFormat = errors.New("unsupported format")

// imageExts are receipt formats that need OCR, which this system does not do.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".heic": true, ".webp": true,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, Ext(path))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Image formats return ErrUnsupportedFormat;
// unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	switch {
	case ext == ".pdf":
		return extractPDF(content)
	case ext == ".docx":
		return extractDOCX(content)
	case ext == ".xlsx" || ext == ".xlsm":
		return extractExcel(content)
	case ext == ".html" || ext == ".htm":
		return extractHTML(content)
	case imageExts[ext]:
		return "", fmt.Errorf("%w: %s receipts require OCR", ErrUnsupportedFormat, ext)
	default:
		return extractPlain(content)
	}
}

// Ext returns the lowercased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
