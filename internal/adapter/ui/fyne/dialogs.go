package fyne

import (
	"log/slog"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/formleszs/music-app/internal/adapter/ui/fyne/widgets"
)

// FolderDialog is a helper for creating folder open dialogs.
type FolderDialog struct {
	window   fyneapp.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog.
func NewFolderDialog(window fyneapp.Window, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyneapp.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
}

// AuthMode selects what the auth dialog submits.
type AuthMode int

const (
	AuthModeLogin AuthMode = iota
	AuthModeRegister
)

// AuthSubmission is what the user entered in the auth dialog.
type AuthSubmission struct {
	Mode     AuthMode
	Phone    string
	Password string
	Confirm  string
}

// AuthDialog is the login / registration form. It stays open while a
// submission is in flight and is closed by the view once a session starts.
type AuthDialog struct {
	window   fyneapp.Window
	onSubmit func(AuthSubmission)

	mode     AuthMode
	dialog   *dialog.CustomDialog
	heading  *widget.Label
	phone    *widgets.PhoneEntry
	password *widget.Entry
	confirm  *widget.Entry
	submit   *widget.Button
	switcher *widget.Button
	activity *widget.ProgressBarInfinite
}

// NewAuthDialog builds the dialog. onSubmit is called on the UI thread.
func NewAuthDialog(window fyneapp.Window, onSubmit func(AuthSubmission)) *AuthDialog {
	d := &AuthDialog{
		window:   window,
		onSubmit: onSubmit,
	}
	d.buildUI()
	return d
}

func (d *AuthDialog) buildUI() {
	d.heading = widget.NewLabelWithStyle("", fyneapp.TextAlignCenter, fyneapp.TextStyle{Bold: true})
	d.phone = widgets.NewPhoneEntry()

	d.password = widget.NewPasswordEntry()
	d.password.SetPlaceHolder("Password")
	d.password.OnSubmitted = func(string) { d.handleSubmit() }

	d.confirm = widget.NewPasswordEntry()
	d.confirm.SetPlaceHolder("Repeat password")
	d.confirm.OnSubmitted = func(string) { d.handleSubmit() }

	d.submit = widget.NewButton("", d.handleSubmit)
	d.submit.Importance = widget.HighImportance
	d.switcher = widget.NewButton("", d.toggleMode)

	d.activity = widget.NewProgressBarInfinite()
	d.activity.Hide()

	form := container.NewVBox(
		d.heading,
		widget.NewLabel("Phone number"),
		d.phone,
		widget.NewLabel("Password"),
		d.password,
		d.confirm,
		d.activity,
		d.submit,
		d.switcher,
	)

	d.dialog = dialog.NewCustom("Account", "Cancel", form, d.window)
	d.dialog.Resize(fyneapp.NewSize(360, 0))
}

// Show opens the dialog in the given mode.
func (d *AuthDialog) Show(mode AuthMode) {
	d.setMode(mode)
	d.password.SetText("")
	d.confirm.SetText("")
	d.dialog.Show()
	d.window.Canvas().Focus(d.phone)
}

// Hide closes the dialog.
func (d *AuthDialog) Hide() {
	d.dialog.Hide()
}

// SetSubmitting locks the form while a request is in flight.
func (d *AuthDialog) SetSubmitting(submitting bool) {
	if submitting {
		d.submit.Disable()
		d.switcher.Disable()
		d.activity.Show()
		d.activity.Start()
		return
	}
	d.submit.Enable()
	d.switcher.Enable()
	d.activity.Stop()
	d.activity.Hide()
}

func (d *AuthDialog) setMode(mode AuthMode) {
	d.mode = mode
	if mode == AuthModeRegister {
		d.heading.SetText("Create account")
		d.submit.SetText("Register")
		d.switcher.SetText("I already have an account")
		d.confirm.Show()
		return
	}
	d.heading.SetText("Log in")
	d.submit.SetText("Log in")
	d.switcher.SetText("Create an account")
	d.confirm.Hide()
}

func (d *AuthDialog) toggleMode() {
	if d.mode == AuthModeLogin {
		d.setMode(AuthModeRegister)
	} else {
		d.setMode(AuthModeLogin)
	}
}

func (d *AuthDialog) handleSubmit() {
	if d.submit.Disabled() || d.onSubmit == nil {
		return
	}
	d.onSubmit(AuthSubmission{
		Mode:     d.mode,
		Phone:    d.phone.Text,
		Password: d.password.Text,
		Confirm:  d.confirm.Text,
	})
}
