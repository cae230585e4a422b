package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardfeed/internal/card"
	"github.com/arcanaland/cardfeed/internal/feed"
	"github.com/arcanaland/cardfeed/internal/likes"
	"github.com/arcanaland/cardfeed/internal/locale"
	"github.com/arcanaland/cardfeed/internal/render"
	"github.com/arcanaland/cardfeed/internal/trigger"
)

// pagedFetcher hands out pages of n sequential cards and records the
// endpoint of every call. When release is set, call number holdCall waits
// for it to be closed.
type pagedFetcher struct {
	mu        sync.Mutex
	n         int
	next      int
	calls     int
	endpoints []string
	holdCall  int
	release   chan struct{}
}

func (f *pagedFetcher) FetchPage(ctx context.Context, endpoint string) (card.FeedPage, error) {
	f.mu.Lock()
	f.calls++
	f.endpoints = append(f.endpoints, endpoint)
	hold := f.release != nil && f.calls == f.holdCall
	f.mu.Unlock()

	if hold {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	page := make(card.FeedPage, f.n)
	for i := range page {
		id := f.next + i
		page[i] = card.Card{ID: id, Name: fmt.Sprintf("Card %d", id), ExternalURL: fmt.Sprintf("https://ygoprodeck.com/card/%d", id)}
	}
	f.next += f.n
	return page, nil
}

func (f *pagedFetcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.endpoints...)
}

type recordingDrawer struct {
	mu    sync.Mutex
	views []render.View
}

func (d *recordingDrawer) Draw(v render.View) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, v)
	return nil
}

func (d *recordingDrawer) last() (render.View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.views) == 0 {
		return render.View{}, false
	}
	return d.views[len(d.views)-1], true
}

type fixture struct {
	session    *Session
	controller *feed.Controller
	likes      *likes.Store
	drawer     *recordingDrawer
}

func newFixture(t *testing.T, pageSize, lookahead int) *fixture {
	t.Helper()
	return newFixtureWith(t, &pagedFetcher{n: pageSize}, feed.StaticEndpoint("http://cards.test"), lookahead)
}

func newFixtureWith(t *testing.T, fetcher feed.PageFetcher, endpoints feed.EndpointSource, lookahead int) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	controller := feed.NewController(fetcher, endpoints, feed.WithLogger(logger))
	t.Cleanup(controller.Close)

	store, err := likes.Open(filepath.Join(t.TempDir(), "liked_cards.json"), logger)
	require.NoError(t, err)

	drawer := &recordingDrawer{}
	observer := trigger.NewObserver(lookahead, controller, controller)
	return &fixture{
		session:    NewSession(controller, observer, store, drawer, logger),
		controller: controller,
		likes:      store,
		drawer:     drawer,
	}
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		input string
		want  []Key
	}{
		{"j", []Key{KeyNext}},
		{" k", []Key{KeyNext, KeyPrev}},
		{"\x1b[B\x1b[A", []Key{KeyNext, KeyPrev}},
		{"lis", []Key{KeyLike, KeyInfo, KeyShare}},
		{"L", []Key{KeyLanguage}},
		{"q", []Key{KeyQuit}},
		{"\x03", []Key{KeyQuit}},
		{"xyz", nil},
		{"\x1b[C", nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeys([]byte(tt.input)))
		})
	}
}

func TestStartLoadsFirstPage(t *testing.T) {
	fx := newFixture(t, 5, 1)

	fx.session.Start()
	fx.controller.Wait()

	assert.Equal(t, 5, fx.controller.Len())
	assert.Equal(t, 5, fx.controller.Buffered())

	v := fx.session.View()
	require.NotNil(t, v.Card)
	assert.Equal(t, 0, v.Card.ID)
	assert.True(t, v.ShowInfo)
}

func TestScrollingNearEndReleasesBuffer(t *testing.T) {
	fx := newFixture(t, 5, 1)
	fx.session.Start()
	fx.controller.Wait()

	for i := 0; i < 2; i++ {
		fx.session.Handle(KeyNext)
	}
	assert.Equal(t, 5, fx.controller.Len(), "still far from the end")

	fx.session.Handle(KeyNext)
	fx.session.Handle(KeyNext)
	assert.Equal(t, 3+1, fx.session.Position())
	assert.Equal(t, 10, fx.controller.Len(), "buffer released without waiting")
	fx.controller.Wait()
	assert.Equal(t, 5, fx.controller.Buffered())
}

func TestPositionStopsAtLoadingPanel(t *testing.T) {
	fx := newFixture(t, 0, 0)
	fx.session.Start()
	fx.controller.Wait()

	fx.session.Handle(KeyNext)
	fx.session.Handle(KeyNext)
	assert.Equal(t, 0, fx.session.Position())
	assert.Nil(t, fx.session.View().Card)

	fx.session.Handle(KeyPrev)
	assert.Equal(t, 0, fx.session.Position())
}

func TestLikeAndShare(t *testing.T) {
	fx := newFixture(t, 3, 0)
	fx.session.Start()
	fx.controller.Wait()

	fx.session.Handle(KeyNext)
	fx.session.Handle(KeyLike)
	assert.True(t, fx.likes.IsLiked(1))
	assert.True(t, fx.session.View().Liked)
	assert.Contains(t, fx.session.View().Status, "liked Card 1")

	fx.session.Handle(KeyLike)
	assert.False(t, fx.likes.IsLiked(1))

	fx.session.Handle(KeyShare)
	assert.Equal(t, "Share: Card 1 | https://ygoprodeck.com/card/1", fx.session.View().Status)

	fx.session.Handle(KeyInfo)
	assert.False(t, fx.session.View().ShowInfo)

	fx.session.Handle(KeyLanguage)
	assert.Equal(t, "Share: Card 1 | https://ygoprodeck.com/card/1", fx.session.View().Status,
		"language key does nothing without a language list")
}

func TestLanguageKeySwitchesNextFetch(t *testing.T) {
	catalog := locale.NewCatalog(locale.Builtin()...)
	selector, err := locale.NewSelector(catalog, "en")
	require.NoError(t, err)
	en, err := catalog.Get("en")
	require.NoError(t, err)

	fetcher := &pagedFetcher{n: 2}
	fx := newFixtureWith(t, fetcher, selector, 0)
	fx.session.SetLanguages(selector)

	fx.session.Start()
	fx.controller.Wait()
	assert.Equal(t, []string{en.Endpoint, en.Endpoint}, fetcher.seen())

	fx.session.Handle(KeyLanguage)
	assert.Equal(t, "de", selector.Current().ID)
	assert.Contains(t, fx.session.View().Status, "Deutsch")

	fx.session.Handle(KeyNext)
	fx.controller.Wait()

	seen := fetcher.seen()
	require.Len(t, seen, 3)
	assert.Contains(t, seen[2], "language=de")
	assert.Equal(t, 4, fx.controller.Len(), "cards fetched before the switch stay in the feed")
}

func TestRunProcessesInputUntilQuit(t *testing.T) {
	fx := newFixture(t, 3, 0)

	// Load before Run so the key presses below land on real cards.
	fx.session.Start()
	fx.controller.Wait()

	err := fx.session.Run(context.Background(), strings.NewReader("jlq"))
	require.NoError(t, err)

	assert.True(t, fx.likes.IsLiked(1))
	assert.NotEmpty(t, fx.drawer.views)
	assert.Equal(t, 1, fx.session.Position())
}

func TestRunEndsOnEOF(t *testing.T) {
	fx := newFixture(t, 1, 0)
	err := fx.session.Run(context.Background(), strings.NewReader(""))
	assert.NoError(t, err)
}

func TestRunEndsOnCancel(t *testing.T) {
	fx := newFixture(t, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()
	err := fx.session.Run(ctx, pr)
	assert.NoError(t, err)
}

func TestRunShowsRefillThatLandsAtTheEnd(t *testing.T) {
	fetcher := &pagedFetcher{n: 2, holdCall: 3, release: make(chan struct{})}
	fx := newFixtureWith(t, fetcher, feed.StaticEndpoint("http://cards.test"), 0)

	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fx.session.Run(ctx, pr) }()
	defer func() {
		cancel()
		_ = pw.Close()
		<-done
	}()

	require.Eventually(t, func() bool {
		return fx.controller.Len() == 2 && fx.controller.Buffered() == 2 && !fx.controller.InFlight()
	}, time.Second, 5*time.Millisecond, "cold start fills the feed and the buffer")

	// Reaching the last card releases the buffer; the refill is held back.
	_, err := pw.Write([]byte("j"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return fx.controller.Len() == 4 && fx.controller.InFlight()
	}, time.Second, 5*time.Millisecond)

	// Scroll onto the loading panel while the refill is still running.
	_, err = pw.Write([]byte("jjj"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, ok := fx.drawer.last()
		return ok && v.Position == 4 && v.Card == nil
	}, time.Second, 5*time.Millisecond)

	close(fetcher.release)

	require.Eventually(t, func() bool {
		v, ok := fx.drawer.last()
		return ok && v.Position == 4 && v.Card != nil
	}, time.Second, 5*time.Millisecond, "ready page shown without another key press")

	v, _ := fx.drawer.last()
	assert.Equal(t, 4, v.Card.ID)
}
