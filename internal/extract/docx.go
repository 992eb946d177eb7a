package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultBody     = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	overrideRe    = regexp.MustCompile(`<Override\s+([^>]*?)/?>`)
	partNameAttr  = regexp.MustCompile(`PartName="([^"]+)"`)
	contentAttr   = regexp.MustCompile(`ContentType="([^"]+)"`)
	paragraphRe   = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	textRunRe     = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	xmlEntityRepl = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

// extractDOCX returns the document text with one line per paragraph. Runs inside a
// paragraph are concatenated as-is since Word splits words across runs.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	bodyPath := docxDefaultBody
	if ct, err := readZipEntry(zr, contentTypesPath); err == nil {
		if p := mainPartName(ct); p != "" {
			bodyPath = p
		}
	}
	body, err := readZipEntry(zr, bodyPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var lines []string
	for _, para := range paragraphRe.FindAllString(body, -1) {
		var b strings.Builder
		for _, m := range textRunRe.FindAllStringSubmatch(para, -1) {
			b.WriteString(m[1])
		}
		if line := strings.TrimSpace(xmlEntityRepl.Replace(b.String())); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// mainPartName finds the main document part in [Content_Types].xml, attributes in any order.
func mainPartName(contentTypes string) string {
	for _, m := range overrideRe.FindAllStringSubmatch(contentTypes, -1) {
		ct := contentAttr.FindStringSubmatch(m[1])
		if ct == nil || ct[1] != docxMainContentType {
			continue
		}
		if pn := partNameAttr.FindStringSubmatch(m[1]); pn != nil {
			return strings.TrimPrefix(pn[1], "/")
		}
	}
	return ""
}

func readZipEntry(zr *zip.Reader, name string) (string, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%s not found", name)
}
