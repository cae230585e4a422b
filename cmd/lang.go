package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/locale"
)

// langCmd represents the lang command
var langCmd = &cobra.Command{
	Use:   "lang",
	Short: "Manage the feed language",
	Long: `Commands for listing the available feed languages and choosing the default one.
Extra languages or endpoint overrides can be added in locales.toml next to the config file.`,
}

// langListCmd represents the lang ls command
var langListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := locale.LoadCatalog(config.GetLocalesFilePath())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available languages:")
		for _, l := range catalog.All() {
			marker := "  "
			suffix := ""
			if l.ID == cfg.Language {
				marker = "* "
				suffix = " [CURRENT]"
			}
			fmt.Fprintf(out, "%s%s %s (%s)%s\n", marker, l.Flag, l.ID, l.Name, suffix)
		}
		return nil
	},
}

// langSetCmd represents the lang set command
var langSetCmd = &cobra.Command{
	Use:   "set [language_id]",
	Short: "Set the default feed language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := locale.LoadCatalog(config.GetLocalesFilePath())
		if err != nil {
			return err
		}

		l, err := catalog.Get(args[0])
		if err != nil {
			return err
		}
		if err := config.SetLanguage(l.ID); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		logger.Debug("language changed", "language", l.ID, "endpoint", l.Endpoint)
		fmt.Fprintf(cmd.OutOrStdout(), "Feed language set to %s %s\n", l.Flag, l.Name)
		return nil
	},
}

func init() {
	langCmd.AddCommand(langListCmd)
	langCmd.AddCommand(langSetCmd)
}
