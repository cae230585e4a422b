package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [config_path]",
	Short: "Validate a cardfeed config file",
	Long: `Validate checks a config file and the locales.toml next to it for unknown
languages, unusable endpoints and out of range settings.
Without an argument the active config file is checked.`,
	Args: cobra.MaximumNArgs(1),
	// The file under test may not load, so skip the root's config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetConfigFilePath(cfgFile)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigFilePath()
		if len(args) == 1 {
			configPath = args[0]
		}
		localesPath := filepath.Join(filepath.Dir(configPath), "locales.toml")

		v := validator.NewValidator(configPath, localesPath)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Validation Results:")
		fmt.Fprintln(out, "-------------------")

		if len(results.Errors) == 0 {
			fmt.Fprintf(out, "✅ Config '%s' is valid.\n", configPath)
		} else {
			fmt.Fprintf(out, "❌ Config '%s' has %d validation errors:\n", configPath, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Fprintf(out, "%d. %s\n", i+1, err)
			}
			return fmt.Errorf("validation failed")
		}

		if len(results.Warnings) > 0 {
			fmt.Fprintln(out, "\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Fprintf(out, "%d. %s\n", i+1, warn)
			}
		}

		return nil
	},
}
