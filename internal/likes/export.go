package likes

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/arcanaland/cardfeed/internal/card"
)

// ExportedCard is the trimmed form written by Export
type ExportedCard struct {
	ID    int     `json:"id"`
	URL   string  `json:"url"`
	Desc  string  `json:"desc"`
	Image *string `json:"image"`
}

// ExportFileName returns the default export file name for the given day
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("yugitok-favorites-%s.json", now.UTC().Format("2006-01-02"))
}

// Export writes cards as an indented JSON array of ExportedCard
func Export(w io.Writer, cards []card.Card) error {
	out := make([]ExportedCard, 0, len(cards))
	for _, c := range cards {
		exported := ExportedCard{ID: c.ID, URL: c.ExternalURL, Desc: c.Description}
		if img := c.PrimaryImage(); img != "" {
			exported.Image = &img
		}
		out = append(out, exported)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}
