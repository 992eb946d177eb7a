package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text layer of a PDF, pages separated by a blank line.
// Pages that fail to decode are skipped; the document fails only when no page
// yields text and at least one page failed. Scanned PDFs without a text layer
// yield an empty string. The pdf reader panics on some malformed files, which
// is reported as an error.
func extractPDF(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var (
		pages    []string
		firstErr error
	)
	for n := 1; n <= r.NumPage(); n++ {
		p := r.Page(n)
		if p.V.IsNull() {
			continue
		}
		s, perr := p.GetPlainText(nil)
		if perr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", n, perr)
			}
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			pages = append(pages, s)
		}
	}
	if len(pages) == 0 && firstErr != nil {
		return "", firstErr
	}
	return strings.Join(pages, "\n\n"), nil
}
