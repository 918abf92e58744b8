// Package fetch implements the bounded HTTP source fetcher. Transport
// errors, oversized or undeclared bodies, unsupported content types, and bad
// gzip streams all yield "no text" rather than an error; a single failure is
// final for that URL.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxContentLength is the largest declared body we will fetch.
	maxContentLength = 1 << 20
	// maxGzipOutput caps decompression output against gzip bombs.
	maxGzipOutput = 2 << 20
)

// TextExtractor strips markup from an HTML document.
type TextExtractor interface {
	Text(r io.Reader) (string, error)
}

// Client fetches candidate URLs and extracts their plain text. It implements
// copyvios.SourceFetcher.
type Client struct {
	client    *http.Client
	extractor TextExtractor
	userAgent string
	logger    *zap.Logger
}

// Config controls Client behavior.
type Config struct {
	// Extractor handles HTML and XHTML bodies. Required.
	Extractor TextExtractor
	// UserAgent is sent when the per-source headers carry none.
	UserAgent string
	Logger    *zap.Logger
}

// New constructs a Client. Transparent compression is disabled so that
// gzip-encoded responses are decoded here, under the output cap.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: true,
			},
		},
		extractor: cfg.Extractor,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger.Named("fetch"),
	}
}

// FetchText issues a GET with the given headers and timeout and returns the
// extracted text. ok is false when no usable text could be obtained.
func (c *Client) FetchText(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (string, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.logger.Debug("bad request url", zap.String("url", rawURL), zap.Error(err))
		return "", false
	}
	for key, values := range headers {
		req.Header[key] = values
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	declared := resp.Header.Get("Content-Length")
	size, err := strconv.ParseInt(declared, 10, 64)
	if declared == "" || err != nil || size > maxContentLength {
		c.logger.Debug("content length rejected", zap.String("url", rawURL), zap.String("declared", declared))
		return "", false
	}

	isHTML, ok := classifyContentType(resp.Header.Get("Content-Type"))
	if !ok {
		c.logger.Debug("unsupported content type", zap.String("url", rawURL), zap.String("content_type", resp.Header.Get("Content-Type")))
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentLength+1))
	if err != nil || int64(len(body)) > maxContentLength {
		return "", false
	}

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		body, ok = gunzip(body)
		if !ok {
			c.logger.Debug("gzip decode failed", zap.String("url", rawURL))
			return "", false
		}
	}

	var text string
	if isHTML {
		text, err = c.extractor.Text(bytes.NewReader(body))
		if err != nil {
			c.logger.Debug("text extraction failed", zap.String("url", rawURL), zap.Error(err))
			return "", false
		}
	} else {
		text = strings.TrimSpace(string(body))
	}
	if text == "" {
		return "", false
	}
	return text, true
}

// classifyContentType reports whether the declared type needs HTML
// extraction and whether it is supported at all. A missing header is treated
// as text/plain.
func classifyContentType(header string) (isHTML, ok bool) {
	ctype := header
	if i := strings.Index(ctype, ";"); i >= 0 {
		ctype = ctype[:i]
	}
	ctype = strings.ToLower(strings.TrimSpace(ctype))
	switch ctype {
	case "text/html", "application/xhtml+xml":
		return true, true
	case "text/plain", "":
		return false, true
	default:
		return false, false
	}
}

func gunzip(body []byte) ([]byte, bool) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	defer func() {
		_ = zr.Close()
	}()
	out, err := io.ReadAll(io.LimitReader(zr, maxGzipOutput))
	if err != nil {
		return nil, false
	}
	return out, true
}
