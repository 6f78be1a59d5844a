package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/example/voice-notifier/internal/metrics"
	"go.uber.org/zap"
)

// ErrTooLarge is returned when a download exceeds the configured size limit.
var ErrTooLarge = errors.New("asset exceeds size limit")

// Config bounds avatar downloads. Zero MaxBytes disables the size limit.
type Config struct {
	MaxBytes int64
	Timeout  time.Duration
}

// Cache downloads avatars and rehosts them through an Uploader. Every failure
// degrades to the source URL; Materialize never fails.
type Cache struct {
	http     *http.Client
	uploader Uploader
	maxBytes int64
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCache creates a cache. A nil uploader disables rehosting.
func NewCache(cfg Config, uploader Uploader, logger *zap.Logger, m *metrics.Metrics) *Cache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Cache{
		http:     &http.Client{Timeout: timeout},
		uploader: uploader,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
		metrics:  m,
	}
}

// Materialize returns a Ref for sourceURL, rehosted when every protocol step
// succeeds.
func (c *Cache) Materialize(ctx context.Context, sourceURL string) Ref {
	ref := Ref{SourceURL: sourceURL}
	if sourceURL == "" || c.uploader == nil {
		return ref
	}

	hosted, err := c.rehost(ctx, sourceURL)
	if err != nil {
		c.logger.Warn("avatar rehost failed, using source url",
			zap.String("source_url", sourceURL),
			zap.Error(err),
		)
		c.metrics.ObserveAsset(metrics.ResultFallback)
		return ref
	}

	c.metrics.ObserveAsset(metrics.ResultHosted)
	ref.UploadID = hosted.ID
	ref.HostedURL = hosted.URL
	return ref
}

func (c *Cache) rehost(ctx context.Context, sourceURL string) (Hosted, error) {
	data, contentType, err := c.download(ctx, sourceURL)
	if err != nil {
		return Hosted{}, fmt.Errorf("download: %w", err)
	}

	slot, err := c.uploader.Open(ctx, filenameFor(sourceURL, contentType), contentType)
	if err != nil {
		return Hosted{}, fmt.Errorf("open: %w", err)
	}
	if err := c.uploader.Transfer(ctx, slot, data); err != nil {
		return Hosted{}, fmt.Errorf("transfer: %w", err)
	}
	if err := c.uploader.Finalize(ctx, slot.Handle); err != nil {
		return Hosted{}, fmt.Errorf("finalize: %w", err)
	}
	hosted, err := c.uploader.Retrieve(ctx, slot.Handle)
	if err != nil {
		return Hosted{}, fmt.Errorf("retrieve: %w", err)
	}
	if hosted.ID == "" {
		hosted.ID = slot.Handle
	}
	return hosted, nil
}

func (c *Cache) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := readAllWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	} else {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// readAllWithLimit reads r up to limit bytes. A limit <= 0 disables the check.
func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: limit + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// filenameFor derives an upload filename from the URL path, adding an
// extension from the content type when the path has none.
func filenameFor(sourceURL, contentType string) string {
	name := "avatar"
	if u, err := url.Parse(sourceURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if path.Ext(name) != "" {
		return name
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return name + preferredExt(exts)
	}
	return name
}

func preferredExt(exts []string) string {
	for _, ext := range exts {
		if strings.EqualFold(ext, ".png") || strings.EqualFold(ext, ".jpg") || strings.EqualFold(ext, ".gif") || strings.EqualFold(ext, ".webp") {
			return ext
		}
	}
	return exts[0]
}
