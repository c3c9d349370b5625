// Package cli implements the musicapp command line: the desktop window, catalog
// inspection, account management and terminal playback.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	fyneui "github.com/formleszs/music-app/internal/adapter/ui/fyne"
	"github.com/formleszs/music-app/internal/app"
	"github.com/formleszs/music-app/internal/config"
)

// options are the global flags plus the base application options every
// command starts from.
type options struct {
	configPath string
	logLevel   string

	base app.Options
}

// NewRootCommand creates the musicapp command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "musicapp",
		Short:         "Stream tracks from the music catalog",
		Long:          `A music streaming client: browse the catalog, rate tracks and play them in a desktop window or the terminal.`,
		Version:       app.GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newUICommand(opts),
		newCatalogCommand(opts),
		newLoginCommand(opts),
		newRegisterCommand(opts),
		newLogoutCommand(opts),
		newStatusCommand(opts),
		newPlayCommand(opts),
	)
	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return run(ctx, cmd)
}

func run(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		title, message := fyneui.DescribeError(err)
		fmt.Fprintln(cmd.ErrOrStderr(), styles.err.Render(title+":"), message)
		return 1
	}
	return 0
}

func (o *options) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// newApp builds a headless application. Audio stays closed unless withAudio.
func (o *options) newApp(withAudio bool) (*app.Application, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	appOpts := o.base
	appOpts.Headless = true
	appOpts.NoAudio = !withAudio
	return app.NewApplication(cfg, appOpts)
}

func newUICommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop window (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd.Context(), opts)
		},
	}
}

func runUI(ctx context.Context, opts *options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	application, err := app.NewApplication(cfg, opts.base)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			application.Logger().Warn("shutdown finished with errors", slog.Any("error", err))
		}
	}()
	return application.Run(ctx)
}
