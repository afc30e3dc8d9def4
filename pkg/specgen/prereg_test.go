package specgen

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"research-workflow-be/pkg/qsf"
)

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "prereg.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPreregTextDocx(t *testing.T) {
	path := writeDocx(t, `<?xml version="1.0"?><w:document>`+
		`<w:p><w:r><w:t>1) Variables</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>DV: wellbeing</w:t></w:r></w:p>`+
		`<w:tbl><w:tr><w:tc><w:t>IV:</w:t></w:tc><w:tc><w:t>condition</w:t></w:tc></w:tr></w:tbl>`+
		`</w:document>`)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := preregText(path, raw)
	if err != nil {
		t.Fatalf("preregText: %v", err)
	}
	if strings.Contains(got, "<w:") {
		t.Errorf("tags survived extraction: %q", got)
	}
	// Paragraphs become lines; table cells stay on one line.
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %v, want 3", lines)
	}
	if lines[0] != "1) Variables" || lines[1] != "DV: wellbeing" {
		t.Errorf("paragraph lines = %q", lines[:2])
	}
	if lines[2] != "IV: condition" {
		t.Errorf("table row = %q, want cells joined by a space", lines[2])
	}
}

func TestPreregTextPassthrough(t *testing.T) {
	got, err := preregText("prereg.md", []byte("# Prereg\nDV: y"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Prereg\nDV: y" {
		t.Errorf("markdown must pass through unchanged, got %q", got)
	}
}

func TestPreregTextDocxErrors(t *testing.T) {
	if _, err := preregText("prereg.docx", []byte("not a zip")); err == nil {
		t.Error("broken archive must error")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := preregText("prereg.docx", buf.Bytes()); err == nil {
		t.Error("archive without word/document.xml must error")
	}
}

func TestGenerateSpecReadsDocxPrereg(t *testing.T) {
	qsfPath, _ := writeInputs(t)
	preregPath := writeDocx(t, `<w:document><w:p><w:t>DV: wellbeing. IV: condition.</w:t></w:p></w:document>`)
	provider := &fakeProvider{response: `{
		"variableMappings": [{"preregVar": "wellbeing", "candidates": []}],
		"models": {"main": [], "exploratory": [], "robustness": []}
	}`}

	if _, err := NewLLMProducer(provider).GenerateSpec(context.Background(), testArgs(qsfPath, preregPath)); err != nil {
		t.Fatalf("GenerateSpec: %v", err)
	}
	if !strings.Contains(provider.prompt, "DV: wellbeing. IV: condition.") {
		t.Error("prompt must carry the extracted document text")
	}
	if strings.Contains(provider.prompt, "PK") && strings.Contains(provider.prompt, "word/document.xml") {
		t.Error("prompt must not carry raw archive bytes")
	}
}

func TestBuildExtractionPromptTruncatesOnRuneBoundary(t *testing.T) {
	survey := &qsf.SurveySpec{SurveyName: "S", LabelMap: map[string]string{}}
	// The leading byte shifts every two-byte rune off an even offset, so the
	// cap lands mid-sequence without the boundary backoff.
	text := "a" + strings.Repeat("é", maxPreregChars)

	prompt := buildExtractionPrompt(survey, []string{"Q1"}, text)
	if !utf8.ValidString(prompt) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if strings.Contains(prompt, string(utf8.RuneError)) {
		t.Error("truncation split a rune")
	}
}
