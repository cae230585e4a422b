package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/likes"
	"github.com/arcanaland/cardfeed/internal/render"
)

// likesCmd represents the likes command
var likesCmd = &cobra.Command{
	Use:   "likes",
	Short: "Manage liked cards",
	Long:  `Commands for listing, removing and exporting the cards you liked while browsing.`,
}

// likesListCmd represents the likes ls command
var likesListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List liked cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLikes()
		if err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("search")
		liked := store.Liked()
		matches := likes.Filter(liked, query)

		out := cmd.OutOrStdout()
		switch {
		case len(liked) == 0:
			fmt.Fprintln(out, "No liked cards yet. Press 'l' while browsing to like a card.")
			return nil
		case len(matches) == 0:
			fmt.Fprintf(out, "No liked cards match %q.\n", query)
			return nil
		}

		return render.LikesTable(out, matches)
	},
}

// likesRemoveCmd represents the likes rm command
var likesRemoveCmd = &cobra.Command{
	Use:   "rm [card_id]",
	Short: "Remove a card from your likes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id %q", args[0])
		}

		store, err := openLikes()
		if err != nil {
			return err
		}

		removed, err := store.Remove(id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("card %d is not in your likes", id)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed card %d from your likes.\n", id)
		return nil
	},
}

// likesExportCmd represents the likes export command
var likesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export liked cards as JSON",
	Long: `Export writes your liked cards to a JSON file named after today's date,
or to the path given with --out. Use --out - to print to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLikes()
		if err != nil {
			return err
		}

		liked := store.Liked()
		out, _ := cmd.Flags().GetString("out")
		if out == "-" {
			return likes.Export(cmd.OutOrStdout(), liked)
		}
		if out == "" {
			out = likes.ExportFileName(time.Now())
		}

		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		if err := likes.Export(file, liked); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}

		logger.Info("likes exported", "path", out, "count", len(liked))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d liked cards to %s\n", len(liked), out)
		return nil
	},
}

func init() {
	likesListCmd.Flags().StringP("search", "s", "", "only show cards whose id or text contains this")
	likesExportCmd.Flags().StringP("out", "o", "", "output file (default yugitok-favorites-YYYY-MM-DD.json)")

	likesCmd.AddCommand(likesListCmd)
	likesCmd.AddCommand(likesRemoveCmd)
	likesCmd.AddCommand(likesExportCmd)
}

func openLikes() (*likes.Store, error) {
	return likes.Open(config.GetLikesFilePath(), logger)
}
