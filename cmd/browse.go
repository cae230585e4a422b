package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/cardfeed/internal/browser"
	"github.com/arcanaland/cardfeed/internal/card"
	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/feed"
	"github.com/arcanaland/cardfeed/internal/fetcher"
	"github.com/arcanaland/cardfeed/internal/likes"
	"github.com/arcanaland/cardfeed/internal/locale"
	"github.com/arcanaland/cardfeed/internal/logging"
	"github.com/arcanaland/cardfeed/internal/preload"
	"github.com/arcanaland/cardfeed/internal/render"
	"github.com/arcanaland/cardfeed/internal/trigger"
)

const (
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	clearScreen = "\x1b[2J\x1b[H"
)

var errNotInteractive = errors.New("browse needs an interactive terminal on stdin and stdout")

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Scroll through an endless feed of random cards",
	Long: `Browse opens the card feed full screen.

Keys:
  j, space, enter, down   next card
  k, up                   previous card
  l                       like or unlike the card
  i                       toggle the card text
  s                       share the card link
  L                       switch to the next language
  q, ctrl-c               quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringP("lang", "l", "", "feed language for this session (see 'cardfeed lang ls')")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	stdin, stdout := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	if !term.IsTerminal(stdin) || !term.IsTerminal(stdout) {
		return errNotInteractive
	}

	lang := cfg.Language
	if flag, _ := cmd.Flags().GetString("lang"); flag != "" {
		lang = flag
	}

	catalog, err := locale.LoadCatalog(config.GetLocalesFilePath())
	if err != nil {
		return err
	}
	selector, err := locale.NewSelector(catalog, lang)
	if err != nil {
		return err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	mode, err := render.ParseColorMode(cfg.Colors)
	if err != nil {
		return err
	}

	// The screen belongs to the feed, so the session logs to a file.
	fileLogger, logFile, err := logging.OpenFile(config.GetLogFilePath(), logLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()
	sessionLogger, sessionID := logging.WithSession(fileLogger)
	logger.Debug("session log", "path", config.GetLogFilePath(), "session_id", sessionID)

	client := &http.Client{Timeout: timeout}
	art, err := preload.NewArtPreloader(preload.Options{
		Client:    client,
		Width:     cfg.ArtWidth,
		Height:    cfg.ArtHeight,
		CacheSize: cfg.ArtCacheSize,
		UserAgent: cfg.UserAgent,
		Logger:    sessionLogger,
	})
	if err != nil {
		return err
	}

	pages := fetcher.New(fetcher.Options{
		Client:            client,
		Preloader:         art,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		Logger:            sessionLogger,
	})
	controller := feed.NewController(pages, selector,
		feed.WithLogger(sessionLogger),
		feed.WithColdStartPrefetch(cfg.ColdStartPrefetch))
	defer controller.Close()

	store, err := likes.Open(config.GetLikesFilePath(), sessionLogger)
	if err != nil {
		return err
	}
	unsubscribe := store.Subscribe(func(liked []card.Card) {
		sessionLogger.Debug("likes_changed", "count", len(liked))
	})
	defer unsubscribe()

	renderer := render.NewRenderer(render.Options{
		Out:       os.Stdout,
		Art:       art,
		ArtWidth:  cfg.ArtWidth,
		ArtHeight: cfg.ArtHeight,
		UseColors: render.ResolveColors(mode, true),
	})
	observer := trigger.NewObserver(cfg.Lookahead, controller, controller)
	session := browser.NewSession(controller, observer, store, renderer, sessionLogger)
	session.SetLanguages(selector)

	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(stdin, oldState)
		fmt.Print(clearScreen + showCursor)
	}()
	fmt.Print(hideCursor)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	current := selector.Current()
	sessionLogger.Info("session_started",
		"language", current.ID,
		"endpoint", current.Endpoint,
		"lookahead", cfg.Lookahead)

	runErr := session.Run(ctx, os.Stdin)

	stats := controller.Stats()
	sessionLogger.Info("session_ended",
		"cards_seen", session.Position()+1,
		"cards_loaded", controller.Len(),
		"fetches", stats.Fetches,
		"failures", stats.Failures)

	return runErr
}
