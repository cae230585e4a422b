// Package preload warms the image cache before a card is shown. Loading an
// image downloads it, decodes it and keeps its ANSI rendering in an LRU cache
// the renderer reads from.
package preload

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/webp"
)

// ErrImageLoadFailed marks a single image that could not be loaded
var ErrImageLoadFailed = errors.New("image load failed")

// maxImageBytes bounds a single image download
const maxImageBytes = 16 << 20

// Outcome is the settled state of one preload
type Outcome int

const (
	FailedToLoad Outcome = iota
	Loaded
)

func (o Outcome) String() string {
	if o == Loaded {
		return "loaded"
	}
	return "failed"
}

// Preloader loads an image ahead of display. Preload never fails past its
// boundary: errors are reported as FailedToLoad.
type Preloader interface {
	Preload(ctx context.Context, url string) Outcome
}

// Func adapts a function to the Preloader interface
type Func func(ctx context.Context, url string) Outcome

// Preload calls f
func (f Func) Preload(ctx context.Context, url string) Outcome {
	return f(ctx, url)
}

// Options configures an ArtPreloader
type Options struct {
	Client    *http.Client
	Width     int
	Height    int
	CacheSize int
	UserAgent string
	Logger    *slog.Logger
}

// ArtPreloader downloads card images and caches their ANSI art
type ArtPreloader struct {
	client    *http.Client
	cache     *lru.Cache[string, string]
	width     int
	height    int
	userAgent string
	logger    *slog.Logger
}

// NewArtPreloader creates a preloader backed by an LRU art cache
func NewArtPreloader(opts Options) (*ArtPreloader, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid art size %dx%d", opts.Width, opts.Height)
	}
	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating art cache: %w", err)
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ArtPreloader{
		client:    client,
		cache:     cache,
		width:     opts.Width,
		height:    opts.Height,
		userAgent: opts.UserAgent,
		logger:    logger,
	}, nil
}

// Preload implements Preloader
func (p *ArtPreloader) Preload(ctx context.Context, url string) Outcome {
	if _, ok := p.cache.Get(url); ok {
		return Loaded
	}

	art, err := p.load(ctx, url)
	if err != nil {
		p.logger.Debug("image_preload_failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return FailedToLoad
	}

	p.cache.Add(url, art)
	return Loaded
}

// Art returns the cached rendering of url
func (p *ArtPreloader) Art(url string) (string, bool) {
	return p.cache.Get(url)
}

func (p *ArtPreloader) load(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrImageLoadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageLoadFailed, err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageLoadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrImageLoadFailed, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrImageLoadFailed, err)
	}

	return ImageToAnsi(img, p.width, p.height), nil
}
