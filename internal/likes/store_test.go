package likes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardfeed/internal/card"
)

func testCard(id int, desc string) card.Card {
	return card.Card{
		ID:          id,
		Name:        "Card",
		Description: desc,
		ExternalURL: "https://ygoprodeck.com/card/x",
		Images:      []card.ImageVariant{{ID: id, FullURL: "https://images.example/x.jpg"}},
	}
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardfeed", "liked_cards.json")
	s, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s, path
}

func TestToggleLike(t *testing.T) {
	s, _ := openTemp(t)

	liked, err := s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, s.IsLiked(1))

	liked, err = s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, s.IsLiked(1))
	assert.Empty(t, s.Liked())
}

func TestLikesPersistAcrossOpen(t *testing.T) {
	s, path := openTemp(t)

	_, err := s.ToggleLike(testCard(7, "first"))
	require.NoError(t, err)
	_, err = s.ToggleLike(testCard(3, "second"))
	require.NoError(t, err)

	var onDisk []card.Card
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 2)

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	liked := reopened.Liked()
	require.Len(t, liked, 2)
	assert.Equal(t, 7, liked[0].ID, "like order is kept")
	assert.Equal(t, 3, liked[1].ID)
	assert.Equal(t, "first", liked[0].Description)
}

func TestUnlikingLastCardWritesEmptyArray(t *testing.T) {
	s, path := openTemp(t)

	_, err := s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)
	_, err = s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liked_cards.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Empty(t, s.Liked())
}

func TestRemove(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)

	removed, err := s.Remove(1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSubscribe(t *testing.T) {
	s, _ := openTemp(t)

	var seen [][]card.Card
	cancel := s.Subscribe(func(cards []card.Card) {
		seen = append(seen, cards)
	})

	_, err := s.ToggleLike(testCard(1, "a"))
	require.NoError(t, err)
	_, err = s.ToggleLike(testCard(2, "b"))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 2)

	cancel()
	_, err = s.ToggleLike(testCard(3, "c"))
	require.NoError(t, err)
	assert.Len(t, seen, 2, "cancelled subscribers are not called")
}

func TestFilter(t *testing.T) {
	cards := []card.Card{
		testCard(46986414, "The ultimate wizard in terms of attack and defense."),
		testCard(89631139, "This legendary dragon is a powerful engine of destruction."),
		testCard(12345, "A Dragon that sleeps."),
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{46986414, 89631139, 12345}},
		{"DRAGON", []int{89631139, 12345}},
		{"4698", []int{46986414}},
		{"  wizard ", []int{46986414}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []int
			for _, c := range Filter(cards, tt.query) {
				got = append(got, c.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExport(t *testing.T) {
	withImage := testCard(1, "has art")
	noImage := card.Card{ID: 2, Description: "no art", ExternalURL: "https://ygoprodeck.com/card/2"}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, []card.Card{withImage, noImage}))

	assert.JSONEq(t, `[
		{"id": 1, "url": "https://ygoprodeck.com/card/x", "desc": "has art", "image": "https://images.example/x.jpg"},
		{"id": 2, "url": "https://ygoprodeck.com/card/2", "desc": "no art", "image": null}
	]`, buf.String())
	assert.Contains(t, buf.String(), "\n  {", "output is indented")
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2025, 2, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "yugitok-favorites-2025-02-09.json", ExportFileName(now))
}
