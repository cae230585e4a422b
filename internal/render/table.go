package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/arcanaland/cardfeed/internal/card"
)

// descWidth truncates descriptions in the likes table
const descWidth = 60

// LikesTable renders liked cards as a borderless table
func LikesTable(w io.Writer, cards []card.Card) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, truncate(c.Description, descWidth), c.ExternalURL})
	}

	table.Header([]string{"ID", "Name", "Description", "URL"})
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building likes table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering likes table: %w", err)
	}
	return nil
}

// truncate shortens s to n runes on a single line
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
