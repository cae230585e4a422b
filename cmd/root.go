package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/logging"
)

var (
	cfgFile  string
	verbose  bool
	cfg      *config.Config
	logLevel slog.Level
	logger   *slog.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardfeed",
	Short: "Swipe through random trading cards in your terminal",
	Long: `cardfeed is an endless feed of random Yu-Gi-Oh! cards, one card per screen.
Cards are fetched from the YGOPRODeck API a page ahead of where you are reading,
so the next card is always ready. Like the cards you want to keep and export them
later.

Run without a subcommand to start browsing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runBrowse,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/cardfeed/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	RootCmd.Flags().StringP("lang", "l", "", "feed language for this session (see 'cardfeed lang ls')")

	RootCmd.AddCommand(browseCmd)
	RootCmd.AddCommand(likesCmd)
	RootCmd.AddCommand(langCmd)
	RootCmd.AddCommand(validateCmd)
}

// initConfig loads the config file and sets up the logger
func initConfig() error {
	config.SetConfigFilePath(cfgFile)

	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel, err = logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = logging.New(os.Stderr, logLevel)

	logger.Debug("configuration loaded",
		"config_file", config.GetConfigFilePath(),
		"language", cfg.Language,
		"lookahead", cfg.Lookahead)

	return nil
}
