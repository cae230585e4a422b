// Package likes persists the cards a user liked and lets the UI subscribe to
// changes of that list.
package likes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/arcanaland/cardfeed/internal/card"
)

// Store holds liked cards in like order and writes them to disk on every
// change. It is safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	cards   []card.Card
	subs    map[int]func([]card.Card)
	nextSub int
}

// Open loads the store from path. A missing file yields an empty store; an
// unreadable JSON document is logged and replaced on the next write.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger,
		subs:   make(map[int]func([]card.Card)),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading liked cards: %w", err)
	}

	if err := json.Unmarshal(data, &s.cards); err != nil {
		logger.Warn("liked_cards_corrupt",
			slog.String("path", path),
			slog.String("error", err.Error()))
		s.cards = nil
	}
	return s, nil
}

// ToggleLike likes c, or unlikes it when already liked. It reports whether c
// is liked afterwards.
func (s *Store) ToggleLike(c card.Card) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(c.ID)
	if idx >= 0 {
		s.cards = append(s.cards[:idx:idx], s.cards[idx+1:]...)
	} else {
		s.cards = append(s.cards, c)
	}
	liked := idx < 0
	snapshot, subs, err := s.commitLocked()
	s.mu.Unlock()

	publish(subs, snapshot)
	return liked, err
}

// Remove unlikes the card with id and reports whether it was liked
func (s *Store) Remove(id int) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.cards = append(s.cards[:idx:idx], s.cards[idx+1:]...)
	snapshot, subs, err := s.commitLocked()
	s.mu.Unlock()

	publish(subs, snapshot)
	return true, err
}

// IsLiked reports whether the card with id is liked
func (s *Store) IsLiked(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Liked returns the liked cards in like order
func (s *Store) Liked() []card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]card.Card(nil), s.cards...)
}

// Subscribe registers fn to receive the liked list after every change. The
// returned function cancels the subscription.
func (s *Store) Subscribe(fn func([]card.Card)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) indexOf(id int) int {
	for i, c := range s.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// commitLocked writes the list and returns what subscribers should see
func (s *Store) commitLocked() ([]card.Card, []func([]card.Card), error) {
	err := s.writeLocked()
	snapshot := append([]card.Card(nil), s.cards...)
	subs := make([]func([]card.Card), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return snapshot, subs, err
}

func (s *Store) writeLocked() error {
	cards := s.cards
	if cards == nil {
		cards = []card.Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("encoding liked cards: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".liked_cards-*.json")
	if err != nil {
		return fmt.Errorf("writing liked cards: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing liked cards: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing liked cards: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing liked cards: %w", err)
	}
	return nil
}

func publish(subs []func([]card.Card), cards []card.Card) {
	for _, fn := range subs {
		fn(cards)
	}
}

// Filter keeps the cards whose id contains query or whose description
// contains it, ignoring case. An empty query keeps everything.
func Filter(cards []card.Card, query string) []card.Card {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cards
	}

	var out []card.Card
	for _, c := range cards {
		if strings.Contains(strconv.Itoa(c.ID), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}
