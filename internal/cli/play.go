package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/formleszs/music-app/internal/adapter/ui/fyne/widgets"
	"github.com/formleszs/music-app/internal/domain"
)

// errNoMatch is returned when play finds nothing to queue.
var errNoMatch = errors.New("no tracks match")

func newPlayCommand(opts *options) *cobra.Command {
	var (
		criteria domain.Criteria
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "play [QUERY]",
		Short: "Play catalog tracks in the terminal",
		Long: `Queue every catalog track matching QUERY (title or artist) and the genre and mood
filters, then play them in order. Without --once the queue wraps until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				criteria.Query = args[0]
			}

			application, err := opts.newApp(true)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := application.LoadCatalog(ctx); err != nil {
				return err
			}
			tracks, err := application.Catalog().Select(criteria)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				return errNoMatch
			}

			out := newPlayOutput(cmd.OutOrStdout())
			bus := application.GetEventBus()
			subs := []domain.SubscriptionID{
				bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
					ev := e.(domain.TrackLoadedEvent)
					out.loaded(ev.Index, len(tracks), ev.Track, ev.Duration.Seconds())
				}),
				bus.Subscribe(domain.EventTrackProgress, func(e domain.Event) {
					ev := e.(domain.TrackProgressEvent)
					out.progress(ev.Position.Seconds(), ev.Duration.Seconds())
				}),
				bus.Subscribe(domain.EventTrackError, func(e domain.Event) {
					out.failed(e.(domain.TrackErrorEvent).Error)
				}),
				bus.Subscribe(domain.EventTrackCompleted, func(e domain.Event) {
					if once && e.(domain.TrackCompletedEvent).Index == len(tracks)-1 {
						cancel()
					}
				}),
			}
			defer func() {
				for _, id := range subs {
					bus.Unsubscribe(id)
				}
			}()

			if err := application.Player().Load(tracks); err != nil {
				return err
			}

			<-ctx.Done()
			out.finish()
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Genre, "genre", "", "only tracks of this genre")
	cmd.Flags().StringVar(&criteria.Mood, "mood", "", "only tracks of this mood")
	cmd.Flags().BoolVar(&once, "once", false, "stop after the last track instead of wrapping")
	return cmd
}

// playOutput prints player events. Progress rewrites the current line.
type playOutput struct {
	mu         sync.Mutex
	w          io.Writer
	inProgress bool
}

func newPlayOutput(w io.Writer) *playOutput {
	return &playOutput{w: w}
}

func (o *playOutput) loaded(index, total int, track domain.Track, seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.breakLine()
	counter := styles.muted.Render(fmt.Sprintf("[%d/%d]", index+1, total))
	fmt.Fprintf(o.w, "%s %s %s\n", counter, styles.title.Render(track.Artist+" - "+track.Title),
		styles.muted.Render(widgets.FormatDuration(seconds)))
}

func (o *playOutput) progress(position, duration float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const width = 30
	filled := 0
	if duration > 0 {
		filled = int(position / duration * width)
	}
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	fmt.Fprintf(o.w, "\r  %s [%s] %s", widgets.FormatDuration(position), bar, widgets.FormatDuration(duration))
	o.inProgress = true
}

func (o *playOutput) failed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.breakLine()
	fmt.Fprintln(o.w, styles.err.Render("playback error:"), err)
}

func (o *playOutput) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.breakLine()
}

func (o *playOutput) breakLine() {
	if o.inProgress {
		fmt.Fprintln(o.w)
		o.inProgress = false
	}
}
