// Package feed implements the buffered feed controller: it keeps the cards the
// user can scroll through, holds one preloaded page in reserve, and guarantees
// that at most one page fetch is in flight at any time.
//
// The reserve page is what makes scrolling seamless. When the user nears the
// end of the visible cards the buffered page is appended at once and a
// background fetch starts refilling the buffer. Only when the buffer is empty
// (first request, or a refill that failed or has not finished) does the user
// wait on the network.
//
// There is no automatic retry. A failed fetch leaves the feed as it was and the
// caller must invoke RequestMore again.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/arcanaland/cardfeed/internal/card"
	"github.com/arcanaland/cardfeed/internal/fetcher"
)

// PageFetcher fetches one settled page of cards
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string) (card.FeedPage, error)
}

// EndpointSource supplies the endpoint for the next fetch
type EndpointSource interface {
	Endpoint() string
}

// StaticEndpoint is an EndpointSource that never changes
type StaticEndpoint string

// Endpoint implements EndpointSource
func (e StaticEndpoint) Endpoint() string {
	return string(e)
}

// Stats counts fetches over the life of a controller
type Stats struct {
	Fetches  int
	Failures int
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithColdStartPrefetch controls whether the first fetch of an empty feed is
// immediately followed by a fetch that fills the buffer. Enabled by default.
func WithColdStartPrefetch(enabled bool) Option {
	return func(c *Controller) {
		c.coldStartPrefetch = enabled
	}
}

// Controller coordinates the visible cards, the reserve buffer and the single
// in-flight fetch. All methods are safe for concurrent use.
type Controller struct {
	fetcher           PageFetcher
	endpoints         EndpointSource
	logger            *slog.Logger
	coldStartPrefetch bool

	mu       sync.Mutex
	visible  []card.Card   // append-only
	buffer   card.FeedPage // at most one page ahead of visible
	inFlight bool          // sole gate for fetches
	closed   bool
	stats    Stats

	updates chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewController creates an empty feed
func NewController(f PageFetcher, endpoints EndpointSource, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:           f,
		endpoints:         endpoints,
		logger:            slog.Default(),
		coldStartPrefetch: true,
		updates:           make(chan struct{}, 1),
		ctx:               ctx,
		cancel:            cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestMore grows the feed. It never blocks on the network and reports
// whether it started work; calls made while a fetch is in flight are dropped.
func (c *Controller) RequestMore() bool {
	c.mu.Lock()
	if c.inFlight || c.closed {
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.wg.Add(1)

	if len(c.buffer) > 0 {
		c.visible = append(c.visible, c.buffer...)
		c.buffer = nil
		c.mu.Unlock()

		c.notify()
		go func() {
			defer c.wg.Done()
			c.refill()
		}()
		return true
	}
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.coldStart()
	}()
	return true
}

// OnNearEnd lets the controller act as the scroll trigger's handler
func (c *Controller) OnNearEnd() {
	c.RequestMore()
}

// coldStart fetches straight into visible, then chains the buffer refill
// without releasing the in-flight gate.
func (c *Controller) coldStart() {
	page, err := c.fetch()

	c.mu.Lock()
	if err != nil {
		c.inFlight = false
		c.mu.Unlock()
		c.notify()
		return
	}
	c.visible = append(c.visible, page...)
	chain := c.coldStartPrefetch && !c.closed
	if !chain {
		c.inFlight = false
	}
	c.mu.Unlock()
	c.notify()

	if chain {
		c.refill()
	}
}

// refill fetches the next page into the buffer and releases the gate
func (c *Controller) refill() {
	page, err := c.fetch()

	c.mu.Lock()
	if err == nil {
		c.buffer = page
	}
	c.inFlight = false
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fetch() (card.FeedPage, error) {
	endpoint := c.endpoints.Endpoint()
	page, err := c.fetcher.FetchPage(c.ctx, endpoint)

	c.mu.Lock()
	c.stats.Fetches++
	if err != nil {
		c.stats.Failures++
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("feed_fetch_failed",
			slog.String("kind", errorKind(err)),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return nil, err
	}
	return page, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, fetcher.ErrParseFailed):
		return "parse"
	case errors.Is(err, fetcher.ErrFetchFailed):
		return "fetch"
	default:
		return "unknown"
	}
}

// notify signals a state change; pending signals are coalesced
func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Updates delivers a signal after every change to the feed state
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Visible returns a copy of the visible cards
func (c *Controller) Visible() []card.Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]card.Card(nil), c.visible...)
}

// Card returns the visible card at index i
func (c *Controller) Card(i int) (card.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.visible) {
		return card.Card{}, false
	}
	return c.visible[i], true
}

// Len returns the number of visible cards
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.visible)
}

// Buffered returns the number of cards held in reserve
func (c *Controller) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// InFlight reports whether a fetch is running
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Stats returns the fetch counters
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Wait blocks until background fetches have settled
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops accepting requests, cancels the in-flight fetch and waits for it
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
