// Package render draws the feed: one card per screen, with its artwork as
// ANSI art next to the card text.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/arcanaland/cardfeed/internal/card"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	lineEnd     = "\r\n"
	spacing     = 4
	minInfo     = 20
)

// ArtSource looks up preloaded ANSI art by image URL
type ArtSource interface {
	Art(url string) (string, bool)
}

// View is everything needed to draw one frame
type View struct {
	Card     *card.Card // nil when the reader is past the last card
	Liked    bool
	ShowInfo bool
	Position int
	Total    int
	Buffered int
	InFlight bool
	Status   string
}

// Options configures a Renderer
type Options struct {
	Out       io.Writer
	Art       ArtSource
	ArtWidth  int
	ArtHeight int
	UseColors bool
	// Size reports the terminal width and height; nil uses the real terminal
	Size func() (int, int)
}

// Renderer writes frames to a terminal
type Renderer struct {
	out       io.Writer
	art       ArtSource
	artWidth  int
	artHeight int
	size      func() (int, int)

	label *color.Color
	title *color.Color
	liked *color.Color
	dim   *color.Color
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	size := opts.Size
	if size == nil {
		size = terminalSize
	}
	r := &Renderer{
		out:       opts.Out,
		art:       opts.Art,
		artWidth:  opts.ArtWidth,
		artHeight: opts.ArtHeight,
		size:      size,
		label:     color.New(color.FgCyan),
		title:     color.New(color.FgHiWhite, color.Bold),
		liked:     color.New(color.FgHiRed),
		dim:       color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.label, r.title, r.liked, r.dim} {
		if opts.UseColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// terminalSize returns the stdout terminal size, 80x24 when unknown
func terminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80, 24
	}
	return width, height
}

// Draw clears the screen and writes one frame
func (r *Renderer) Draw(v View) error {
	var lines []string
	if v.Card != nil {
		lines = r.CardLines(*v.Card, v.Liked, v.ShowInfo)
	} else {
		lines = r.LoadingLines(v.InFlight)
	}
	lines = append(lines, "", r.Footer(v))

	_, err := io.WriteString(r.out, clearScreen+strings.Join(lines, lineEnd)+lineEnd)
	return err
}

// CardLines lays out the card art on the left and its text on the right
func (r *Renderer) CardLines(c card.Card, liked, showInfo bool) []string {
	artLines := r.artLines(c)
	if !showInfo {
		return indent(artLines)
	}

	width, _ := r.size()
	infoStartCol := r.artWidth + spacing
	infoWidth := width - infoStartCol - 2
	if infoWidth < minInfo {
		infoWidth = minInfo
	}
	infoLines := r.infoLines(c, liked, infoWidth)

	maxLines := max(len(artLines), len(infoLines))
	out := make([]string, 0, maxLines)
	for i := 0; i < maxLines; i++ {
		var b strings.Builder
		if i < len(artLines) {
			b.WriteString(artLines[i])
			b.WriteString(strings.Repeat(" ", max(infoStartCol-visibleLen(artLines[i]), 0)))
		} else {
			b.WriteString(strings.Repeat(" ", infoStartCol))
		}
		if i < len(infoLines) {
			b.WriteString(infoLines[i])
		}
		out = append(out, b.String())
	}
	return indent(out)
}

func (r *Renderer) artLines(c card.Card) []string {
	if r.art != nil {
		if art, ok := r.art.Art(c.PrimaryImage()); ok {
			return strings.Split(strings.TrimRight(art, "\n"), "\n")
		}
	}
	return placeholder(r.artWidth, r.artHeight)
}

func (r *Renderer) infoLines(c card.Card, liked bool, width int) []string {
	var lines []string
	lines = append(lines, r.title.Sprint(c.Name))
	lines = append(lines, r.label.Sprint("ID:   ")+fmt.Sprint(c.ID))
	if liked {
		lines = append(lines, r.liked.Sprint("♥ Liked"))
	} else {
		lines = append(lines, r.dim.Sprint("♡ Not liked"))
	}

	if c.Description != "" {
		lines = append(lines, "")
		lines = append(lines, wrapText(c.Description, width)...)
	}
	if c.ExternalURL != "" {
		lines = append(lines, "")
		lines = append(lines, r.label.Sprint("More: ")+c.ExternalURL)
	}
	return lines
}

// LoadingLines is drawn when the reader has run past the visible cards
func (r *Renderer) LoadingLines(inFlight bool) []string {
	if inFlight {
		return indent([]string{"", "⟳ Loading..."})
	}
	return indent([]string{"", "No more cards right now. Scroll again to retry."})
}

// Footer is the status line under every frame
func (r *Renderer) Footer(v View) string {
	pos := fmt.Sprintf("%d/%d", min(v.Position+1, v.Total), v.Total)
	parts := []string{pos}
	if v.Buffered > 0 {
		parts = append(parts, fmt.Sprintf("%d ready", v.Buffered))
	}
	if v.InFlight {
		parts = append(parts, "loading")
	}
	footer := "  " + strings.Join(parts, " · ")
	if v.Status != "" {
		footer += "  " + v.Status
	}
	return footer + lineEnd + r.dim.Sprint("  j/↓ next  k/↑ prev  l like  i info  s share  L lang  q quit")
}

func placeholder(width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(" ", width)
	}
	label := "[ no image ]"
	if len(label) <= width {
		pad := (width - len(label)) / 2
		lines[height/2] = strings.Repeat(" ", pad) + label + strings.Repeat(" ", width-pad-len(label))
	}
	return lines
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "  " + l
	}
	return out
}
