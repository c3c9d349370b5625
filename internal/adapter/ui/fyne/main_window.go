package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/formleszs/music-app/internal/adapter/ui/fyne/widgets"
	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
	"github.com/formleszs/music-app/res"
)

const (
	appName      = "Music App"
	windowWidth  = 960
	windowHeight = 640

	marqueeWidth    = 48
	marqueeInterval = 250 * time.Millisecond
	searchDebounce  = 300 * time.Millisecond
)

// MainWindow is the main UI window implementing ports.View.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter off the UI thread
//
// Every ports.View method may be called from any goroutine; updates are
// marshaled onto the Fyne thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	art    *ArtLoader

	ctx    context.Context
	cancel context.CancelFunc

	// Track lists (UI thread only)
	tracks        []domain.Track
	favorites     []domain.Track
	trackList     *widget.List
	favoritesList *widget.List
	tabs          *container.AppTabs
	recTab        *container.TabItem
	favTab        *container.TabItem
	selectingTab  bool

	// Filters
	searchEntry *widget.Entry
	genreSelect *widget.Select
	moodSelect  *widget.Select
	filterBox   *fyneapp.Container
	searchMu    sync.Mutex
	searchTimer *time.Timer

	// Transport
	prevButton     *widget.Button
	playButton     *widget.Button
	nextButton     *widget.Button
	likeButton     *widget.Button
	dislikeButton  *widget.Button
	songInfo       *widget.Label
	artistInfo     *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	seeking        bool
	albumArt       *canvas.Image
	artURL         string
	marquee        *widgets.Marquee
	status         *widget.Label

	// Account
	loginButton  *widget.Button
	logoutButton *widget.Button
	authDialog   *AuthDialog

	// Lifecycle management
	stopScroll    chan struct{}
	closeOnce     sync.Once
	onBeforeClose func()

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, art *ArtLoader) *MainWindow {
	ctx, cancel := context.WithCancel(context.Background())
	w := &MainWindow{
		app:        app,
		logger:     logger.With(slog.String("component", "main_window")),
		art:        art,
		ctx:        ctx,
		cancel:     cancel,
		marquee:    widgets.NewMarquee(appName, marqueeWidth),
		stopScroll: make(chan struct{}),
	}

	w.window = app.NewWindow(appName)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(windowWidth, windowHeight))
	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// SetOnBeforeClose registers a callback run when the user closes the window.
func (w *MainWindow) SetOnBeforeClose(callback func()) {
	w.onBeforeClose = callback
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Now playing
	w.albumArt = canvas.NewImageFromResource(theme.MediaMusicIcon())
	w.albumArt.FillMode = canvas.ImageFillContain
	w.albumArt.SetMinSize(fyneapp.NewSize(220, 220))

	w.songInfo = widget.NewLabel(appName)
	w.songInfo.Truncation = fyneapp.TextTruncateClip
	w.songInfo.TextStyle = fyneapp.TextStyle{Bold: true}
	w.artistInfo = widget.NewLabel("")
	w.artistInfo.TextStyle = fyneapp.TextStyle{Italic: true}

	// Control buttons
	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.likeButton = widget.NewButtonWithIcon("Like", theme.ConfirmIcon(), nil)
	w.dislikeButton = widget.NewButtonWithIcon("Dislike", theme.CancelIcon(), nil)

	buttons := container.NewHBox(
		w.prevButton, w.playButton, w.nextButton,
		widget.NewSeparator(),
		w.likeButton, w.dislikeButton,
	)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.1
	w.currentTime = widget.NewLabel(widgets.FormatDuration(0))
	w.endTime = widget.NewLabel(widgets.FormatDuration(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	nowPlaying := container.NewBorder(
		nil,
		container.NewVBox(w.songInfo, w.artistInfo, buttons, sliderHolder),
		nil, nil,
		w.albumArt,
	)

	// Filters
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search by title or artist")
	w.genreSelect = widget.NewSelect([]string{domain.AllValue}, nil)
	w.genreSelect.SetSelected(domain.AllValue)
	w.moodSelect = widget.NewSelect([]string{domain.AllValue}, nil)
	w.moodSelect.SetSelected(domain.AllValue)
	applyFilter := widget.NewButtonWithIcon("Apply", theme.SearchIcon(), func() {
		genre, mood := w.genreSelect.Selected, w.moodSelect.Selected
		w.async(func() { w.presenter.OnFilterApplied(genre, mood) })
	})
	w.filterBox = container.NewHBox(
		widget.NewLabel("Genre"), w.genreSelect,
		widget.NewLabel("Mood"), w.moodSelect,
		applyFilter,
	)
	w.filterBox.Hide()

	// Track lists
	w.trackList = w.newTrackList(func() []domain.Track { return w.tracks })
	w.favoritesList = w.newTrackList(func() []domain.Track { return w.favorites })

	w.recTab = container.NewTabItemWithIcon("Recommendations", theme.HomeIcon(), w.trackList)
	w.favTab = container.NewTabItemWithIcon("Favorites", theme.ConfirmIcon(), w.favoritesList)
	w.tabs = container.NewAppTabs(w.recTab, w.favTab)
	w.tabs.DisableItem(w.favTab)

	// Account
	w.loginButton = widget.NewButtonWithIcon("Log in", theme.AccountIcon(), nil)
	w.logoutButton = widget.NewButtonWithIcon("Log out", theme.LogoutIcon(), nil)
	w.logoutButton.Hide()

	top := container.NewBorder(nil, nil, nil,
		container.NewHBox(w.loginButton, w.logoutButton),
		container.NewVBox(w.searchEntry, w.filterBox),
	)

	w.status = widget.NewLabel("")
	w.status.Truncation = fyneapp.TextTruncateEllipsis

	split := container.NewHSplit(w.tabs, container.NewPadded(nowPlaying))
	split.Offset = 0.55

	w.window.SetContent(container.NewBorder(top, w.status, nil, nil, split))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))

	w.setTransportEnabled(false)
}

func (w *MainWindow) newTrackList(items func() []domain.Track) *widget.List {
	return widget.NewList(
		func() int { return len(items()) },
		func() fyneapp.CanvasObject {
			row := widgets.NewTrackRow(func(index int) {
				w.async(func() { w.presenter.OnTrackSelected(index) })
			})
			row.SetSecondaryTapped(w.showTrackMenu)
			return row
		},
		func(id widget.ListItemID, obj fyneapp.CanvasObject) {
			list := items()
			if id < 0 || id >= len(list) {
				return
			}
			obj.(*widgets.TrackRow).Bind(id, list[id])
		},
	)
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = func() {
		w.async(w.presenter.OnPlayClicked)
	}
	w.nextButton.OnTapped = func() {
		w.async(w.presenter.OnNextClicked)
	}
	w.prevButton.OnTapped = func() {
		w.async(w.presenter.OnPreviousClicked)
	}
	w.likeButton.OnTapped = func() {
		w.async(w.presenter.OnLikeClicked)
	}
	w.dislikeButton.OnTapped = func() {
		w.async(w.presenter.OnDislikeClicked)
	}

	// Seeking: Value is set directly by SetProgress, so OnChanged only fires
	// while the user drags.
	w.progressSlider.OnChanged = func(float64) {
		w.seeking = true
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		w.seeking = false
		if w.progressSlider.Max <= 0 {
			return
		}
		fraction := value / w.progressSlider.Max
		w.async(func() { w.presenter.OnSeekRequested(fraction) })
	}

	w.searchEntry.OnChanged = w.debounceSearch

	w.tabs.OnSelected = func(item *container.TabItem) {
		if w.selectingTab {
			return
		}
		tab := ports.TabRecommendations
		if item == w.favTab {
			tab = ports.TabFavorites
		}
		w.async(func() { w.presenter.OnTabSelected(tab) })
	}

	w.authDialog = NewAuthDialog(w.window, w.handleAuthSubmit)
	w.loginButton.OnTapped = func() {
		w.authDialog.Show(AuthModeLogin)
	}
	w.logoutButton.OnTapped = func() {
		w.async(w.presenter.OnLogoutClicked)
	}
}

func (w *MainWindow) handleAuthSubmit(s AuthSubmission) {
	w.async(func() {
		if s.Mode == AuthModeRegister {
			w.presenter.OnRegisterSubmitted(w.ctx, s.Phone, s.Password, s.Confirm)
			return
		}
		w.presenter.OnLoginSubmitted(w.ctx, s.Phone, s.Password)
	})
}

func (w *MainWindow) debounceSearch(query string) {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	if w.searchTimer != nil {
		w.searchTimer.Stop()
	}
	w.searchTimer = time.AfterFunc(searchDebounce, func() {
		w.presenter.OnSearchChanged(query)
	})
}

// async runs a presenter command off the UI thread. Commands may block on
// network or audio I/O.
func (w *MainWindow) async(fn func()) {
	if w.presenter == nil {
		return
	}
	go fn()
}

func (w *MainWindow) showTrackMenu(index int, pos fyneapp.Position) {
	menu := fyneapp.NewMenu("",
		fyneapp.NewMenuItem("Play", func() {
			w.async(func() { w.presenter.OnTrackSelected(index) })
		}),
	)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pos)
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFolder := fyneapp.NewMenuItem("Open Folder...", w.handleOpenFolder)
	cancelScan := fyneapp.NewMenuItem("Cancel Scan", func() {
		w.async(w.presenter.OnCancelScan)
	})
	exit := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	file := fyneapp.NewMenu("File", openFolder, cancelScan, fyneapp.NewMenuItemSeparator(), exit)

	login := fyneapp.NewMenuItem("Log in", func() {
		if w.authDialog != nil {
			w.authDialog.Show(AuthModeLogin)
		}
	})
	register := fyneapp.NewMenuItem("Register", func() {
		if w.authDialog != nil {
			w.authDialog.Show(AuthModeRegister)
		}
	})
	logout := fyneapp.NewMenuItem("Log out", func() {
		w.async(w.presenter.OnLogoutClicked)
	})
	account := fyneapp.NewMenu("Account", login, register, logout)

	about := fyneapp.NewMenuItem("About", w.showAbout)
	help := fyneapp.NewMenu("Help", about)

	return []*fyneapp.Menu{file, account, help}
}

func (w *MainWindow) showAbout() {
	content := widget.NewRichTextFromMarkdown(res.AboutContent)
	content.Wrapping = fyneapp.TextWrapWord
	d := dialog.NewCustom("About "+appName, "Close", content, w.window)
	d.Resize(fyneapp.NewSize(420, 280))
	d.Show()
}

// handleOpenFolder handles the "Open Folder" menu action.
func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}

	NewFolderDialog(w.window, func(folderPath string) {
		w.setStatus(fmt.Sprintf("Scanning %s...", folderPath))
		w.async(func() { w.presenter.OnFolderOpened(w.ctx, folderPath) })
	}, w.logger).Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	shortcuts := []struct {
		key    fyneapp.KeyName
		action func()
	}{
		{fyneapp.KeySpace, w.presenter.OnPlayClicked},
		{fyneapp.KeyRight, w.presenter.OnNextClicked},
		{fyneapp.KeyLeft, w.presenter.OnPreviousClicked},
		{fyneapp.KeyL, w.presenter.OnLikeClicked},
		{fyneapp.KeyD, w.presenter.OnDislikeClicked},
	}
	for _, s := range shortcuts {
		action := s.action
		w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
			KeyName:  s.key,
			Modifier: fyneapp.KeyModifierAlt,
		}, func(fyneapp.Shortcut) {
			w.async(action)
		})
	}
}

// startScrollInfoRoutine scrolls long track names in the now-playing label.
func (w *MainWindow) startScrollInfoRoutine() {
	go func() {
		ticker := time.NewTicker(marqueeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stopScroll:
				return
			case <-ticker.C:
				if !w.marquee.Scrolls() {
					continue
				}
				text := w.marquee.Rotate()
				fyneapp.Do(func() { w.songInfo.SetText(text) })
			}
		}
	}()
}

// ShowAndRun shows the window and runs the application.
// This also starts the song info scrolling animation.
func (w *MainWindow) ShowAndRun() {
	w.startScrollInfoRoutine()
	w.window.ShowAndRun()
}

// Close closes the window and stops the scrolling animation.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		close(w.stopScroll)
		w.cancel()
		w.searchMu.Lock()
		if w.searchTimer != nil {
			w.searchTimer.Stop()
		}
		w.searchMu.Unlock()
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// ports.View implementation

// SetTracks replaces the recommendations list.
func (w *MainWindow) SetTracks(tracks []domain.Track) {
	tracks = slices.Clone(tracks)
	fyneapp.Do(func() {
		w.tracks = tracks
		w.trackList.UnselectAll()
		w.trackList.Refresh()
		w.status.SetText(fmt.Sprintf("%d tracks", len(tracks)))
	})
}

// SetSelection highlights a row of the recommendations list.
func (w *MainWindow) SetSelection(index int) {
	fyneapp.Do(func() {
		if index < 0 || index >= len(w.tracks) {
			w.trackList.UnselectAll()
			return
		}
		w.trackList.Select(index)
	})
}

// SetFilterOptions fills the genre and mood selectors.
func (w *MainWindow) SetFilterOptions(genres, moods []string) {
	fyneapp.Do(func() {
		setOptions(w.genreSelect, genres)
		setOptions(w.moodSelect, moods)
	})
}

func setOptions(s *widget.Select, values []string) {
	s.Options = append([]string{domain.AllValue}, values...)
	if !slices.Contains(s.Options, s.Selected) {
		s.SetSelected(domain.AllValue)
	}
	s.Refresh()
}

// SetNowPlaying shows the current track, or the idle state for nil.
func (w *MainWindow) SetNowPlaying(track *domain.Track) {
	var t domain.Track
	if track != nil {
		t = *track
	}
	fyneapp.Do(func() {
		if track == nil {
			w.marquee.SetText(appName)
			w.songInfo.SetText(appName)
			w.artistInfo.SetText("")
			w.setArt("")
			return
		}
		w.marquee.SetText(t.Title)
		w.songInfo.SetText(t.Title)
		w.artistInfo.SetText(t.Artist)
		w.setArt(t.AlbumArtURL)
	})
}

// setArt shows the default icon and starts loading url. UI thread only.
func (w *MainWindow) setArt(url string) {
	if url == w.artURL {
		return
	}
	w.artURL = url
	w.albumArt.Resource = theme.MediaMusicIcon()
	w.albumArt.Refresh()
	if url == "" || w.art == nil {
		return
	}

	go func() {
		res, err := w.art.Load(w.ctx, url)
		if err != nil {
			w.logger.Debug("album art unavailable", slog.String("url", url), slog.Any("error", err))
			return
		}
		fyneapp.Do(func() {
			if w.artURL != url {
				return
			}
			w.albumArt.Resource = res
			w.albumArt.Refresh()
		})
	}()
}

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetProgress moves the progress slider unless the user is dragging it.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		w.progressSlider.Max = max(duration.Seconds(), 1)
		if !w.seeking {
			w.progressSlider.Value = min(position.Seconds(), w.progressSlider.Max)
			w.progressSlider.Refresh()
		}
		w.currentTime.SetText(widgets.FormatDuration(position.Seconds()))
		w.endTime.SetText(widgets.FormatDuration(duration.Seconds()))
	})
}

// SetTransportEnabled enables or disables the transport controls.
func (w *MainWindow) SetTransportEnabled(enabled bool) {
	fyneapp.Do(func() { w.setTransportEnabled(enabled) })
}

func (w *MainWindow) setTransportEnabled(enabled bool) {
	for _, b := range []*widget.Button{w.prevButton, w.playButton, w.nextButton, w.likeButton, w.dislikeButton} {
		if enabled {
			b.Enable()
		} else {
			b.Disable()
		}
	}
	if enabled {
		w.progressSlider.Enable()
	} else {
		w.progressSlider.Disable()
	}
}

// SetRating highlights the like or dislike button.
func (w *MainWindow) SetRating(rating domain.Rating) {
	fyneapp.Do(func() {
		w.likeButton.Importance = widget.MediumImportance
		w.dislikeButton.Importance = widget.MediumImportance
		switch rating {
		case domain.RatingLiked:
			w.likeButton.Importance = widget.SuccessImportance
		case domain.RatingDisliked:
			w.dislikeButton.Importance = widget.DangerImportance
		}
		w.likeButton.Refresh()
		w.dislikeButton.Refresh()
	})
}

// SetAuthenticated shows the session-only controls.
func (w *MainWindow) SetAuthenticated(authenticated bool) {
	fyneapp.Do(func() {
		if authenticated {
			w.loginButton.Hide()
			w.logoutButton.Show()
			w.filterBox.Show()
			w.tabs.EnableItem(w.favTab)
			return
		}
		w.logoutButton.Hide()
		w.loginButton.Show()
		w.filterBox.Hide()
		w.tabs.DisableItem(w.favTab)
	})
}

// SetSubmitting locks the auth form while a request is in flight.
func (w *MainWindow) SetSubmitting(submitting bool) {
	fyneapp.Do(func() {
		if w.authDialog != nil {
			w.authDialog.SetSubmitting(submitting)
		}
	})
}

// CloseAuthDialog hides the login / register form.
func (w *MainWindow) CloseAuthDialog() {
	fyneapp.Do(func() {
		if w.authDialog != nil {
			w.authDialog.Hide()
		}
	})
}

// SetFavorites replaces the favorites list.
func (w *MainWindow) SetFavorites(tracks []domain.Track) {
	tracks = slices.Clone(tracks)
	fyneapp.Do(func() {
		w.favorites = tracks
		w.favoritesList.Refresh()
	})
}

// ShowTab switches the visible track list.
func (w *MainWindow) ShowTab(tab ports.Tab) {
	fyneapp.Do(func() {
		item := w.recTab
		if tab == ports.TabFavorites {
			item = w.favTab
		}
		w.selectingTab = true
		w.tabs.Select(item)
		w.selectingTab = false
	})
}

// ShowError displays a modal error message.
func (w *MainWindow) ShowError(title, message string) {
	fyneapp.Do(func() {
		dialog.ShowInformation(title, message, w.window)
	})
}

// ShowInfo shows a message in the status bar and as a system notification.
func (w *MainWindow) ShowInfo(title, message string) {
	w.setStatus(fmt.Sprintf("%s: %s", title, message))
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

func (w *MainWindow) setStatus(text string) {
	fyneapp.Do(func() { w.status.SetText(text) })
}

// Verify ports.View implementation
var _ ports.View = (*MainWindow)(nil)
