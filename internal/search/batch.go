package search

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cyrup-ai/citescrape-go/internal/markdown"
)

// gzipMagic is the two-byte gzip header used to detect compressed files
// regardless of their extension.
var gzipMagic = []byte{0x1f, 0x8b}

// headingLine pulls the first ATX heading out of a Markdown document to use
// as a document title when none is otherwise available.
var headingLine = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// prepareResult is one document successfully prepared from disk, or an
// error tagged with the file that produced it.
type prepareResult struct {
	doc *Document
	err error
	srcFile string
}

// prepareBatch reads and validates every file in batch concurrently (bounded
// by maxWorkers), enforcing the compressed-size, decompressed-size and
// compression-ratio limits before a document is handed to the index writer.
// Mirrors the original's size-ascending sort plus parallel-prepare /
// sequential-commit split: preparation fans out across goroutines here, and
// the caller commits the returned documents to bleve sequentially, since
// bleve's Batch is not safe for concurrent Index calls.
func prepareBatch(batch []DiscoveredFile, domain, crawlID string, limits IndexingLimits, maxWorkers int) ([]*Document, []ErrorEntry) {
	sorted := make([]DiscoveredFile, len(batch))
	copy(sorted, batch)
	sizes := make(map[string]int64, len(sorted))
	for _, f := range sorted {
		if info, err := os.Stat(f.AbsPath); err == nil {
			sizes[f.AbsPath] = info.Size()
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sizes[sorted[i].AbsPath] < sizes[sorted[j].AbsPath] })

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	results := make([]prepareResult, len(sorted))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	for i, f := range sorted {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f DiscoveredFile) {
			defer wg.Done()
			defer func() { <-sem }()
			doc, err := prepareDocumentFromFile(f, crawlID, limits)
			results[i] = prepareResult{doc: doc, err: err, srcFile: f.AbsPath}
		}(i, f)
	}
	wg.Wait()

	docs := make([]*Document, 0, len(results))
	var errs []ErrorEntry
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, ErrorEntry{File: r.srcFile, Message: categorizeError(r.err)})
			continue
		}
		docs = append(docs, r.doc)
	}
	return docs, errs
}

// prepareDocumentFromFile reads one discovered file, decompresses it if
// gzipped (rejecting anything over the compressed/decompressed/ratio
// limits), validates it as UTF-8, and builds the Document bleve will index.
func prepareDocumentFromFile(f DiscoveredFile, crawlID string, limits IndexingLimits) (*Document, error) {
	info, err := os.Stat(f.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > limits.MaxCompressedBytes {
		return nil, fmt.Errorf("file too large: %d bytes exceeds compressed limit", info.Size())
	}

	raw, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var md []byte
	if len(raw) >= 2 && bytes.Equal(raw[:2], gzipMagic) {
		md, err = decompressWithLimits(raw, limits)
		if err != nil {
			return nil, err
		}
	} else {
		md = raw
	}

	if !utf8.Valid(md) {
		return nil, fmt.Errorf("encoding error: not valid utf-8")
	}

	rawMarkdown := string(md)
	plain := markdown.PlainText(rawMarkdown)
	snippet := markdown.Snippet(plain, 280)
	title := extractTitle(rawMarkdown, f.URL)
	wordCount := len(strings.Fields(plain))

	return &Document{
		URL:          f.URL,
		Path:         f.AbsPath,
		Title:        title,
		RawMarkdown:  rawMarkdown,
		PlainContent: plain,
		Snippet:      snippet,
		FileSize:     int64(len(raw)),
		WordCount:    wordCount,
		Domain:       f.Domain,
		CrawlID:      crawlID,
	}, nil
}

// decompressWithLimits gunzips compressed, aborting early if the
// decompressed size or running compression ratio exceeds limits — the same
// zip-bomb guard the original applies per chunk rather than only at the end.
func decompressWithLimits(compressed []byte, limits IndexingLimits) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompression error: %w", err)
	}
	defer zr.Close()

	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)
	var out bytes.Buffer
	compressedLen := int64(len(compressed))

	for {
		n, readErr := zr.Read(buf)
		if n > 0 {
			out.Write(buf[:n])

			if int64(out.Len()) > limits.MaxDecompressedBytes {
				return nil, fmt.Errorf("decompression error: decompressed size exceeds limit")
			}
			if compressedLen > 0 {
				ratio := float64(out.Len()) / float64(compressedLen)
				if ratio > limits.MaxCompressionRatio {
					return nil, fmt.Errorf("decompression error: compression ratio exceeds limit")
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("decompression error: %w", readErr)
		}
	}
	return out.Bytes(), nil
}

// extractTitle pulls the first heading out of a Markdown document, falling
// back to the page URL when no heading is present.
func extractTitle(rawMarkdown, fallbackURL string) string {
	if m := headingLine.FindStringSubmatch(rawMarkdown); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallbackURL
}

// categorizeError buckets a prepare error into a short category string,
// mirroring the original's substring-based categorize_error.
func categorizeError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "not found"):
		return "file_not_found: " + msg
	case strings.Contains(msg, "decompression"):
		return "decompression_error: " + msg
	case strings.Contains(msg, "utf-8"), strings.Contains(msg, "encoding"):
		return "encoding_error: " + msg
	case strings.Contains(msg, "too large"), strings.Contains(msg, "exceeds"):
		return "too_large: " + msg
	default:
		return "unknown_error: " + msg
	}
}
