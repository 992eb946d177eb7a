package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML returns the visible text of an HTML e-receipt.
func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br, p, div, tr, li, h1, h2, h3, h4, td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return Normalize(doc.Text()), nil
}
