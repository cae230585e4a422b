// Package fetcher retrieves one page of cards from the card API and preloads
// every card image before handing the page back.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/arcanaland/cardfeed/internal/card"
	"github.com/arcanaland/cardfeed/internal/preload"
)

var (
	// ErrFetchFailed covers transport and HTTP level failures
	ErrFetchFailed = errors.New("fetch failed")
	// ErrParseFailed covers malformed response bodies
	ErrParseFailed = errors.New("parse failed")
)

// maxBodyBytes bounds a page response
const maxBodyBytes = 8 << 20

// Options configures a Fetcher
type Options struct {
	Client            *http.Client
	Preloader         preload.Preloader
	RequestsPerSecond float64
	UserAgent         string
	Logger            *slog.Logger
}

// Fetcher performs single page requests against a card endpoint
type Fetcher struct {
	client    *http.Client
	preloader preload.Preloader
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// New creates a Fetcher. A non-positive RequestsPerSecond disables rate limiting.
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	preloader := opts.Preloader
	if preloader == nil {
		preloader = preload.Func(func(context.Context, string) preload.Outcome { return preload.Loaded })
	}

	return &Fetcher{
		client:    client,
		preloader: preloader,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
		logger:    logger,
	}
}

// FetchPage requests endpoint, parses the page and waits until every primary
// image has settled. On failure it returns an empty page and an error wrapping
// ErrFetchFailed or ErrParseFailed. It never retries.
func (f *Fetcher) FetchPage(ctx context.Context, endpoint string) (card.FeedPage, error) {
	startTime := time.Now()

	page, err := f.request(ctx, endpoint)
	if err != nil {
		f.logger.Warn("page_fetch_failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return card.FeedPage{}, err
	}

	failed := f.settle(ctx, page)

	f.logger.Debug("page_fetched",
		slog.String("endpoint", endpoint),
		slog.Int("cards", len(page)),
		slog.Int("images_failed", failed),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return page, nil
}

func (f *Fetcher) request(ctx context.Context, endpoint string) (card.FeedPage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}

	var decoded card.Response
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrFetchFailed, resp.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, decodeErr)
	}
	if decoded.Data == nil {
		return nil, fmt.Errorf("%w: response has no data field", ErrParseFailed)
	}

	page := decoded.Data
	for _, c := range page {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
	}

	return page, nil
}

// settle preloads every primary image concurrently and returns once all of
// them have either loaded or failed. It reports the number of failures.
func (f *Fetcher) settle(ctx context.Context, page card.FeedPage) int {
	outcomes := make([]preload.Outcome, len(page))

	var g errgroup.Group
	for i, c := range page {
		g.Go(func() error {
			outcomes[i] = f.preloader.Preload(ctx, c.PrimaryImage())
			return nil // image failures are non-fatal
		})
	}
	_ = g.Wait()

	failed := 0
	for i, outcome := range outcomes {
		if outcome == preload.FailedToLoad {
			failed++
			f.logger.Debug("card_image_failed",
				slog.Int("card_id", page[i].ID),
				slog.String("url", page[i].PrimaryImage()))
		}
	}
	return failed
}
