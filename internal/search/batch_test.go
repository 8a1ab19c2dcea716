package search

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeGzip(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPrepareDocumentFromFilePlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.md")
	if err := os.WriteFile(path, []byte("# Hello World\n\nSome body text here."), 0o644); err != nil {
		t.Fatal(err)
	}

	f := DiscoveredFile{AbsPath: path, URL: "https://example.com/", Domain: "example.com"}
	doc, err := prepareDocumentFromFile(f, "crawl-1", DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Hello World" {
		t.Errorf("title = %q, want %q", doc.Title, "Hello World")
	}
	if doc.Domain != "example.com" {
		t.Errorf("domain = %q", doc.Domain)
	}
	if doc.WordCount == 0 {
		t.Error("expected nonzero word count")
	}
}

func TestPrepareDocumentFromFileGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.md.gz")
	writeGzip(t, path, []byte("# Compressed\n\nbody text"))

	f := DiscoveredFile{AbsPath: path, URL: "https://example.com/", Domain: "example.com"}
	doc, err := prepareDocumentFromFile(f, "crawl-1", DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Compressed" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestDecompressWithLimitsRejectsOversizedOutput(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	big := bytes.Repeat([]byte("a"), 1024*1024)
	if _, err := zw.Write(big); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	limits := IndexingLimits{
		MaxCompressedBytes:   int64(len(buf.Bytes())) + 1,
		MaxDecompressedBytes: 1024, // far smaller than the real decompressed size
		MaxCompressionRatio:  1000,
	}
	_, err := decompressWithLimits(buf.Bytes(), limits)
	if err == nil {
		t.Fatal("expected decompression to be rejected for exceeding decompressed-size limit")
	}
}

func TestDecompressWithLimitsRejectsHighRatio(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	big := bytes.Repeat([]byte("a"), 1024*1024)
	if _, err := zw.Write(big); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	limits := IndexingLimits{
		MaxCompressedBytes:   int64(len(buf.Bytes())) + 1,
		MaxDecompressedBytes: 1024 * 1024 * 1024,
		MaxCompressionRatio:  2.0, // real ratio here is far higher
	}
	_, err := decompressWithLimits(buf.Bytes(), limits)
	if err == nil {
		t.Fatal("expected decompression to be rejected for exceeding compression ratio limit")
	}
}

func TestCategorizeError(t *testing.T) {
	got := categorizeError(errFor("decompression error: bad gzip"))
	if !bytes.HasPrefix([]byte(got), []byte("decompression_error:")) {
		t.Errorf("got %q", got)
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

func errFor(msg string) error { return testErr(msg) }
