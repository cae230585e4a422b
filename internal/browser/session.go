// Package browser runs the interactive feed: it turns key presses into
// scrolling, feeds the reading position to the scroll trigger and redraws
// whenever the feed changes.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/arcanaland/cardfeed/internal/card"
	"github.com/arcanaland/cardfeed/internal/locale"
	"github.com/arcanaland/cardfeed/internal/render"
	"github.com/arcanaland/cardfeed/internal/trigger"
)

// Feed is the read side of the feed controller
type Feed interface {
	Card(i int) (card.Card, bool)
	Len() int
	Buffered() int
	InFlight() bool
	Updates() <-chan struct{}
}

// LikeStore records liked cards
type LikeStore interface {
	ToggleLike(c card.Card) (bool, error)
	IsLiked(id int) bool
}

// Drawer draws a frame
type Drawer interface {
	Draw(v render.View) error
}

// LanguageCycler moves the feed to the next language. The feed reads the
// endpoint on every fetch, so the switch applies from the next page on.
type LanguageCycler interface {
	Cycle() (locale.Locale, error)
}

// Session is one interactive browsing session
type Session struct {
	feed      Feed
	observer  *trigger.Observer
	likes     LikeStore
	drawer    Drawer
	languages LanguageCycler
	logger    *slog.Logger

	position int
	showInfo bool
	status   string
}

// NewSession wires a session together
func NewSession(feed Feed, observer *trigger.Observer, likes LikeStore, drawer Drawer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		feed:     feed,
		observer: observer,
		likes:    likes,
		drawer:   drawer,
		logger:   logger,
		showInfo: true,
	}
}

// SetLanguages enables the language key
func (s *Session) SetLanguages(languages LanguageCycler) {
	s.languages = languages
}

// Position returns the index of the card on screen
func (s *Session) Position() int {
	return s.position
}

// Start makes the first observation, which loads the initial page
func (s *Session) Start() {
	s.observe()
}

func (s *Session) observe() {
	if s.observer.Observe(s.position, s.feed.Len()) {
		s.logger.Debug("near_end",
			slog.Int("position", s.position),
			slog.Int("visible", s.feed.Len()))
	}
}

// Handle applies one key and reports whether the session should end
func (s *Session) Handle(k Key) bool {
	switch k {
	case KeyQuit:
		return true
	case KeyNext:
		if s.position < s.feed.Len() {
			s.position++
		}
		s.status = ""
		s.observe()
	case KeyPrev:
		if s.position > 0 {
			s.position--
		}
		s.status = ""
		s.observe()
	case KeyInfo:
		s.showInfo = !s.showInfo
	case KeyLike:
		s.toggleLike()
	case KeyShare:
		if c, ok := s.feed.Card(s.position); ok {
			s.status = fmt.Sprintf("Share: %s | %s", c.Name, c.ExternalURL)
		}
	case KeyLanguage:
		s.switchLanguage()
	}
	return false
}

func (s *Session) switchLanguage() {
	if s.languages == nil {
		return
	}
	l, err := s.languages.Cycle()
	if err != nil {
		s.logger.Error("language_switch_failed", slog.String("error", err.Error()))
		s.status = "could not switch language: " + err.Error()
		return
	}
	s.logger.Info("language_changed",
		slog.String("language", l.ID),
		slog.String("endpoint", l.Endpoint))
	s.status = fmt.Sprintf("Language: %s %s (from the next page)", l.Flag, l.Name)
}

func (s *Session) toggleLike() {
	c, ok := s.feed.Card(s.position)
	if !ok {
		return
	}
	liked, err := s.likes.ToggleLike(c)
	if err != nil {
		s.logger.Error("like_save_failed",
			slog.Int("card_id", c.ID),
			slog.String("error", err.Error()))
		s.status = "could not save likes: " + err.Error()
		return
	}
	if liked {
		s.status = "♥ liked " + c.Name
	} else {
		s.status = "unliked " + c.Name
	}
}

// View describes the current frame
func (s *Session) View() render.View {
	v := render.View{
		ShowInfo: s.showInfo,
		Position: s.position,
		Total:    s.feed.Len(),
		Buffered: s.feed.Buffered(),
		InFlight: s.feed.InFlight(),
		Status:   s.status,
	}
	if c, ok := s.feed.Card(s.position); ok {
		v.Card = &c
		v.Liked = s.likes.IsLiked(c.ID)
	}
	return v
}

func (s *Session) draw() error {
	return s.drawer.Draw(s.View())
}

// Run reads keys from in until the user quits, in is exhausted or ctx ends
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case input <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	s.Start()
	if err := s.draw(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.feed.Updates():
			// A refill that lands while the reader waits at the end leaves a
			// ready page and an idle gate; look again instead of waiting for
			// the next key. Failed fetches leave nothing buffered and are only
			// retried on navigation.
			if !s.feed.InFlight() && s.feed.Buffered() > 0 {
				s.observe()
			}
		case chunk := <-input:
			for _, k := range ParseKeys(chunk) {
				if s.Handle(k) {
					return nil
				}
			}
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading keys: %w", err)
		}
		if err := s.draw(); err != nil {
			return err
		}
	}
}
