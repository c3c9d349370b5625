// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
	"github.com/formleszs/music-app/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus once, at construction
// - Map domain events to ports.View updates
// - Translate UI commands to service method calls
// - Map service errors to user-facing messages
//
// Command methods block until the service call returns. Views invoke the
// network-bound ones (login, register, folder import) off the UI thread.
type Presenter struct {
	logger *slog.Logger

	catalog  *service.CatalogService
	player   *service.PlayerService
	ratings  *service.RatingService
	sessions *service.SessionService
	library  *service.LibraryService

	bus  ports.EventBus
	view ports.View
	subs []domain.SubscriptionID

	// Presentation state
	tab       ports.Tab
	criteria  domain.Criteria
	shown     []domain.Track
	favorites []domain.Track
	queue     []domain.Track
	current   *domain.Track

	mu           sync.Mutex
	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and subscribes it to the bus.
func NewPresenter(
	logger *slog.Logger,
	catalog *service.CatalogService,
	player *service.PlayerService,
	ratings *service.RatingService,
	sessions *service.SessionService,
	library *service.LibraryService,
	bus ports.EventBus,
	view ports.View,
) *Presenter {
	p := &Presenter{
		logger:   logger.With(slog.String("component", "presenter")),
		catalog:  catalog,
		player:   player,
		ratings:  ratings,
		sessions: sessions,
		library:  library,
		bus:      bus,
		view:     view,
		tab:      ports.TabRecommendations,
	}

	p.subscribeToEvents()
	p.syncInitialState()
	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := []struct {
		eventType domain.EventType
		handler   domain.EventHandler
	}{
		{domain.EventCatalogLoaded, p.onCatalogLoaded},
		{domain.EventViewChanged, p.onViewChanged},
		{domain.EventQueueChanged, p.onQueueChanged},

		{domain.EventTrackLoaded, p.onTrackLoaded},
		{domain.EventTrackStarted, p.onTrackStarted},
		{domain.EventTrackPaused, p.onTrackPaused},
		{domain.EventTrackStopped, p.onTrackStopped},
		{domain.EventTrackProgress, p.onTrackProgress},
		{domain.EventTrackError, p.onTrackError},

		{domain.EventRatingChanged, p.onRatingChanged},

		{domain.EventSessionStarted, p.onSessionStarted},
		{domain.EventSessionEnded, p.onSessionEnded},
		{domain.EventSubmissionChanged, p.onSubmissionChanged},

		{domain.EventScanCompleted, p.onScanCompleted},
		{domain.EventScanCancelled, p.onScanCancelled},
	}

	p.subs = make([]domain.SubscriptionID, 0, len(subscriptions))
	for _, s := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(s.eventType, s.handler))
	}
}

// syncInitialState brings the view in line with services that may have
// started before the presenter.
func (p *Presenter) syncInitialState() {
	authenticated := p.sessions.IsAuthenticated()
	p.view.SetAuthenticated(authenticated)
	p.view.SetSubmitting(p.sessions.State() == domain.AuthSubmitting)
	p.view.ShowTab(ports.TabRecommendations)

	if p.catalog.Loaded() {
		view, criteria := p.catalog.View()
		p.mu.Lock()
		p.shown = view
		p.criteria = criteria
		p.mu.Unlock()
		p.view.SetTracks(view)
		p.view.SetFilterOptions(p.catalog.Genres(), p.catalog.Moods())
	}

	state := p.player.GetState()
	p.mu.Lock()
	p.queue = state.Tracks
	p.current = state.CurrentTrack()
	p.mu.Unlock()

	p.view.SetNowPlaying(state.CurrentTrack())
	p.view.SetPlayState(state.Status == domain.StatusPlaying)
	p.view.SetProgress(state.Position, state.Duration)
	p.view.SetTransportEnabled(state.Status != domain.StatusEmpty || len(p.shownTracks()) > 0)
	if cur := state.CurrentTrack(); cur != nil {
		p.view.SetRating(p.ratings.Rating(cur.ID))
	} else {
		p.view.SetRating(domain.RatingNone)
	}
	if authenticated {
		p.refreshFavorites()
	}
}

// Event handlers

func (p *Presenter) onCatalogLoaded(event domain.Event) {
	if _, ok := event.(domain.CatalogLoadedEvent); !ok {
		return
	}

	view, criteria := p.catalog.View()
	p.mu.Lock()
	p.shown = view
	p.criteria = criteria
	p.mu.Unlock()

	p.view.SetFilterOptions(p.catalog.Genres(), p.catalog.Moods())
	p.view.SetTracks(view)
	p.view.SetSelection(-1)
	p.view.SetTransportEnabled(len(view) > 0)
	if p.sessions.IsAuthenticated() {
		p.refreshFavorites()
	}
}

func (p *Presenter) onViewChanged(event domain.Event) {
	e, ok := event.(domain.ViewChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.shown = e.Tracks
	p.criteria = e.Criteria
	switchTab := p.tab != ports.TabRecommendations
	p.tab = ports.TabRecommendations
	p.mu.Unlock()

	if switchTab {
		p.view.ShowTab(ports.TabRecommendations)
	}
	p.view.SetTracks(e.Tracks)
	if len(e.Tracks) == 0 {
		p.view.ShowInfo("No tracks", "Nothing matches the current filters")
	}
}

func (p *Presenter) onQueueChanged(event domain.Event) {
	e, ok := event.(domain.QueueChangedEvent)
	if !ok {
		return
	}
	p.mu.Lock()
	p.queue = e.Tracks
	p.mu.Unlock()
}

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	track := e.Track
	p.mu.Lock()
	p.current = &track
	selection := indexOf(p.shown, track.ID)
	p.mu.Unlock()

	p.view.SetNowPlaying(&track)
	p.view.SetSelection(selection)
	p.view.SetProgress(0, e.Duration)
	p.view.SetTransportEnabled(true)
	p.view.SetRating(p.ratings.Rating(track.ID))
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onTrackPaused(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackStopped(domain.Event) {
	p.mu.Lock()
	p.current = nil
	hasTracks := len(p.shown) > 0
	p.mu.Unlock()

	p.view.SetNowPlaying(nil)
	p.view.SetPlayState(false)
	p.view.SetProgress(0, 0)
	p.view.SetSelection(-1)
	p.view.SetRating(domain.RatingNone)
	p.view.SetTransportEnabled(hasTracks)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	p.mu.Lock()
	current := p.current != nil && p.current.ID == e.TrackID
	p.mu.Unlock()
	if current {
		p.view.SetProgress(e.Position, e.Duration)
	}
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	track := e.Track
	p.mu.Lock()
	p.current = &track
	p.mu.Unlock()

	p.view.SetNowPlaying(&track)
	p.view.SetPlayState(false)
	p.view.ShowError("Playback error", fmt.Sprintf("Cannot play %q: %v", track.Title, e.Error))
}

func (p *Presenter) onRatingChanged(event domain.Event) {
	e, ok := event.(domain.RatingChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	current := p.current != nil && p.current.ID == e.TrackID
	p.mu.Unlock()

	if current {
		p.view.SetRating(e.Rating)
	}
	p.refreshFavorites()
}

func (p *Presenter) onSessionStarted(event domain.Event) {
	e, ok := event.(domain.SessionStartedEvent)
	if !ok {
		return
	}

	p.view.SetAuthenticated(true)
	p.refreshFavorites()

	switch e.Origin {
	case domain.OriginLogin:
		p.view.CloseAuthDialog()
		p.view.ShowInfo("Welcome back", "Logged in successfully")
	case domain.OriginRegister:
		p.view.CloseAuthDialog()
		p.view.ShowInfo("Welcome", "Registration complete")
	}
}

func (p *Presenter) onSessionEnded(domain.Event) {
	p.mu.Lock()
	wasFavorites := p.tab == ports.TabFavorites
	p.tab = ports.TabRecommendations
	p.favorites = nil
	p.mu.Unlock()

	p.view.SetAuthenticated(false)
	p.view.SetFavorites(nil)
	if wasFavorites {
		p.view.ShowTab(ports.TabRecommendations)
	}
}

func (p *Presenter) onSubmissionChanged(event domain.Event) {
	e, ok := event.(domain.SubmissionChangedEvent)
	if !ok {
		return
	}
	p.view.SetSubmitting(e.Submitting)
}

func (p *Presenter) onScanCompleted(event domain.Event) {
	e, ok := event.(domain.ScanCompletedEvent)
	if !ok {
		return
	}
	p.view.ShowInfo("Scan complete", fmt.Sprintf("Found %d tracks", len(e.Tracks)))
}

func (p *Presenter) onScanCancelled(domain.Event) {
	p.view.ShowInfo("Scan cancelled", "The folder scan was cancelled")
}

// refreshFavorites rebuilds the favorites list from the liked ids.
func (p *Presenter) refreshFavorites() {
	if !p.sessions.IsAuthenticated() {
		return
	}
	favorites := p.catalog.Favorites(p.ratings.Liked())

	p.mu.Lock()
	p.favorites = favorites
	p.mu.Unlock()

	p.view.SetFavorites(favorites)
}

func (p *Presenter) shownTracks() []domain.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

// UI command handlers (called by the view)

// OnPlayClicked toggles playback. With nothing loaded it starts the shown list
// from the top.
func (p *Presenter) OnPlayClicked() {
	if p.player.GetState().Status != domain.StatusEmpty {
		p.report("play/pause", p.player.TogglePlay())
		return
	}

	tracks := p.activeList()
	if len(tracks) == 0 {
		return
	}
	p.report("play", p.player.Load(tracks))
}

// OnNextClicked skips to the next track.
func (p *Presenter) OnNextClicked() {
	p.report("next", p.player.Next())
}

// OnPreviousClicked goes back to the previous track.
func (p *Presenter) OnPreviousClicked() {
	p.report("previous", p.player.Previous())
}

// OnSeekRequested seeks to a fraction (0..1) of the current track.
func (p *Presenter) OnSeekRequested(fraction float64) {
	err := p.player.SeekFraction(fraction)
	if errors.Is(err, domain.ErrNoTrackLoaded) {
		return
	}
	p.report("seek", err)
}

// OnTrackSelected plays the track at index of the list on the active tab.
func (p *Presenter) OnTrackSelected(index int) {
	tracks := p.activeList()
	if index < 0 || index >= len(tracks) {
		return
	}

	p.mu.Lock()
	sameQueue := slices.EqualFunc(p.queue, tracks, func(a, b domain.Track) bool { return a.ID == b.ID })
	p.mu.Unlock()

	if sameQueue {
		p.report("select track", p.player.PlayAt(index))
		return
	}
	p.report("select track", p.player.LoadAt(tracks, index))
}

// OnSearchChanged selects the tracks whose title or artist contains query,
// keeping the current genre and mood.
func (p *Presenter) OnSearchChanged(query string) {
	p.mu.Lock()
	criteria := p.criteria
	p.mu.Unlock()
	if criteria.Query == query {
		return
	}
	criteria.Query = query
	p.selectView(criteria)
}

// OnFilterApplied selects the tracks matching genre and mood. Filters are
// available only with a session.
func (p *Presenter) OnFilterApplied(genre, mood string) {
	if !p.sessions.IsAuthenticated() {
		p.view.ShowInfo("Login required", "Log in to use filters")
		return
	}
	p.mu.Lock()
	criteria := p.criteria
	p.mu.Unlock()
	criteria.Genre = genre
	criteria.Mood = mood
	p.selectView(criteria)
}

func (p *Presenter) selectView(criteria domain.Criteria) {
	if _, err := p.catalog.Select(criteria); err != nil {
		p.report("select view", err)
	}
}

// OnLikeClicked toggles the like on the current track.
func (p *Presenter) OnLikeClicked() {
	p.rate(p.ratings.ToggleLike)
}

// OnDislikeClicked toggles the dislike on the current track.
func (p *Presenter) OnDislikeClicked() {
	p.rate(p.ratings.ToggleDislike)
}

func (p *Presenter) rate(toggle func(int) (domain.Rating, error)) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()
	if current == nil {
		return
	}
	if _, err := toggle(current.ID); err != nil {
		p.report("rate", err)
	}
}

// OnTabSelected switches between recommendations and favorites. Favorites
// need a session.
func (p *Presenter) OnTabSelected(tab ports.Tab) {
	if tab == ports.TabFavorites && !p.sessions.IsAuthenticated() {
		p.view.ShowTab(ports.TabRecommendations)
		p.view.ShowInfo("Login required", "Log in to see your favorites")
		return
	}

	p.mu.Lock()
	p.tab = tab
	p.mu.Unlock()

	if tab == ports.TabFavorites {
		p.refreshFavorites()
	}
	p.view.ShowTab(tab)
}

// OnLoginSubmitted logs in. It blocks for the duration of the request.
func (p *Presenter) OnLoginSubmitted(ctx context.Context, phone, password string) {
	_, err := p.sessions.Login(ctx, phone, password)
	p.report("login", err)
}

// OnRegisterSubmitted registers an account. It blocks for the duration of
// the request.
func (p *Presenter) OnRegisterSubmitted(ctx context.Context, phone, password, confirm string) {
	_, err := p.sessions.Register(ctx, phone, password, confirm)
	p.report("register", err)
}

// OnLogoutClicked ends the session.
func (p *Presenter) OnLogoutClicked() {
	p.report("logout", p.sessions.Logout())
}

// OnFolderOpened scans a folder and makes the result the catalog. It blocks
// until the scan finishes.
func (p *Presenter) OnFolderOpened(ctx context.Context, path string) {
	tracks, err := p.library.Scan(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrScanCancelled) {
			p.report("scan folder", err)
		}
		return
	}
	if len(tracks) == 0 {
		p.view.ShowInfo("No music found", fmt.Sprintf("No playable files in %s", path))
		return
	}
	p.catalog.Replace(path, tracks)
}

// OnCancelScan stops a running folder scan.
func (p *Presenter) OnCancelScan() {
	p.library.CancelScan()
}

func (p *Presenter) activeList() []domain.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tab == ports.TabFavorites {
		return p.favorites
	}
	return p.shown
}

// report logs err and shows it to the user.
func (p *Presenter) report(op string, err error) {
	if err == nil || errors.Is(err, domain.ErrSubmissionCancelled) {
		return
	}
	p.logger.Warn("command failed", slog.String("op", op), slog.Any("error", err))

	// Engine failures arrive as track error events.
	var engineErr *domain.AudioEngineError
	if errors.As(err, &engineErr) {
		return
	}
	title, message := DescribeError(err)
	p.view.ShowError(title, message)
}

// DescribeError maps an error to a dialog title and message.
func DescribeError(err error) (title, message string) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		networkErr    *domain.NetworkError
		authzErr      *domain.AuthorizationError
	)

	switch {
	case errors.As(err, &validationErr):
		return "Check your input", capitalize(validationErr.Message)
	case errors.As(err, &authErr):
		switch authErr.Reason {
		case domain.AuthReasonUserNotFound:
			return "Login failed", "No account is registered with this phone number"
		case domain.AuthReasonWrongPassword:
			return "Login failed", "Incorrect password"
		case domain.AuthReasonAlreadyRegistered:
			return "Registration failed", "An account with this phone number already exists"
		default:
			if authErr.Detail != "" {
				return capitalize(authErr.Op) + " failed", authErr.Detail
			}
			return capitalize(authErr.Op) + " failed", "The server rejected the request"
		}
	case errors.As(err, &networkErr):
		return "Connection problem", "Could not reach the server. Please try again later"
	case errors.As(err, &authzErr):
		return "Login required", "Log in to rate tracks"
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return "Please wait", "A request is already in progress"
	case errors.Is(err, domain.ErrCatalogNotLoaded):
		return "Catalog unavailable", "The track catalog has not been loaded yet"
	case errors.Is(err, domain.ErrScanInProgress):
		return "Please wait", "A folder scan is already running"
	default:
		return "Error", err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

func indexOf(tracks []domain.Track, id int) int {
	return slices.IndexFunc(tracks, func(t domain.Track) bool { return t.ID == id })
}

// Shutdown detaches the presenter from the bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.subs = nil
	})
}
