package inliner

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

const inlinerUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// fetchLimited performs a GET, enforcing a response-size ceiling by reading at
// most limit+1 bytes — a response that hits the limit is rejected outright
// rather than silently truncated, matching the original's reject-oversized
// rather than truncate-and-keep behavior.
func fetchLimited(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration, limit int64) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", inlinerUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, "", fmt.Errorf("response exceeds %d byte limit", limit)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func downloadCSS(ctx context.Context, client *http.Client, cfg Config, rawURL string) (string, error) {
	body, _, err := fetchLimited(ctx, client, rawURL, cfg.CSSTimeout, cfg.MaxCSSSize)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func downloadSVG(ctx context.Context, client *http.Client, cfg Config, rawURL string) (string, error) {
	body, _, err := fetchLimited(ctx, client, rawURL, cfg.SVGTimeout, cfg.MaxSVGSize)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// downloadImageDataURL fetches an image and encodes it as a base64 data: URL,
// inferring the MIME type from the response Content-Type header and falling
// back to the URL's file extension when the header is absent or generic.
func downloadImageDataURL(ctx context.Context, client *http.Client, cfg Config, rawURL string) (string, error) {
	body, contentType, err := fetchLimited(ctx, client, rawURL, cfg.ImageTimeout, cfg.MaxImageSize)
	if err != nil {
		return "", err
	}

	mimeType := contentType
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(path.Ext(rawURL)); guessed != "" {
			mimeType = guessed
		} else {
			mimeType = "image/png"
		}
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	return "data:" + mimeType + ";base64," + encoded, nil
}
