package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, "Jane Doe", "Go engineer")

	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "test.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if text != "Jane Doe\nGo engineer" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytes_PlainTextPassesThrough(t *testing.T) {
	text, err := ExtractTextFromBytes(context.Background(), []byte("Senior Go developer\n"), "", "offer.txt")
	if err != nil {
		t.Fatalf("ExtractTextFromBytes: %v", err)
	}
	if text != "Senior Go developer\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextFromBytes_EmptyText(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("   "), "text/plain", "blank.txt")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestExtractTextFromBytes_BrokenPDF(t *testing.T) {
	if _, err := ExtractTextFromBytes(context.Background(), []byte("%PDF-1.4 broken"), "application/pdf", "cv.pdf"); err == nil {
		t.Fatalf("expected error for truncated pdf")
	}
}

func TestFromReaderEnforcesLimit(t *testing.T) {
	_, err := FromReader(context.Background(), strings.NewReader("0123456789"), 5, "text/plain", "big.txt")
	if err == nil || !strings.Contains(err.Error(), "exceeds 5 bytes") {
		t.Fatalf("expected size limit error, got %v", err)
	}

	text, err := FromReader(context.Background(), strings.NewReader("short"), 5, "text/plain", "ok.txt")
	if err != nil || text != "short" {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
}
