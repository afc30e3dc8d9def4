package specgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	xmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern  = regexp.MustCompile(`[ \t]+`)
	blankLinePattern = regexp.MustCompile(`\n{3,}`)
)

// preregText turns a prereg asset into the plain text the extraction prompt
// consumes. DOCX files carry their text inside word/document.xml; markdown,
// txt and json documents are already prompt-safe as is.
func preregText(path string, raw []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return docxText(raw)
	}
	return string(raw), nil
}

func docxText(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("invalid docx archive: %w", err)
	}

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("read docx body: %w", err)
	}
	defer rc.Close()
	xml, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read docx body: %w", err)
	}

	// Paragraph and table-row closers become line breaks before the tags go.
	text := string(xml)
	text = strings.ReplaceAll(text, "</w:p>", "\n")
	text = strings.ReplaceAll(text, "</w:tr>", "\n")
	text = strings.ReplaceAll(text, "</w:tc>", " ")
	text = xmlTagPattern.ReplaceAllString(text, " ")
	text = blankRunPattern.ReplaceAllString(text, " ")
	text = blankLinePattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
