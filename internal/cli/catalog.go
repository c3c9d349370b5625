package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/formleszs/music-app/internal/adapter/ui/fyne/widgets"
	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/service"
)

func newCatalogCommand(opts *options) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and build track catalogs",
	}
	catalogCmd.AddCommand(newCatalogListCommand(opts), newCatalogScanCommand(opts))
	return catalogCmd
}

func newCatalogListCommand(opts *options) *cobra.Command {
	var criteria domain.Criteria

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog, optionally filtered",
		Long:  `Print the catalog as a table. --genre and --mood filter exactly, --query matches title or artist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			if err := application.LoadCatalog(cmd.Context()); err != nil {
				return err
			}

			tracks, err := application.Catalog().Select(criteria)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tracks) == 0 {
				fmt.Fprintln(out, styles.warn.Render("No tracks match."))
				return nil
			}
			fmt.Fprintln(out, trackTable(tracks))
			fmt.Fprintln(out, styles.muted.Render(fmt.Sprintf("%d of %d tracks", len(tracks), len(application.Catalog().Tracks()))))
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Genre, "genre", "", "only tracks of this genre")
	cmd.Flags().StringVar(&criteria.Mood, "mood", "", "only tracks of this mood")
	cmd.Flags().StringVarP(&criteria.Query, "query", "q", "", "substring of title or artist")
	return cmd
}

func trackTable(tracks []domain.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Title,
			t.Artist,
			widgets.FormatDuration(t.Duration.Seconds()),
			t.Genre,
			t.Mood,
		})
	}
	return renderTable([]string{"#", "Title", "Artist", "Length", "Genre", "Mood"}, rows)
}

func newCatalogScanCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Build a catalog CSV from a folder of audio files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			tracks, err := application.Library().Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return service.WriteCatalog(cmd.OutOrStdout(), tracks)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := service.WriteCatalog(f, tracks); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			application.Logger().Debug("catalog written", slog.String("path", output), slog.Int("tracks", len(tracks)))
			fmt.Fprintln(cmd.ErrOrStderr(), styles.ok.Render(fmt.Sprintf("Wrote %d tracks to %s", len(tracks), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
