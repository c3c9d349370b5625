package widgets

import (
	"fyne.io/fyne/v2/widget"

	"github.com/formleszs/music-app/internal/domain"
)

// PhoneEntry is an entry that keeps its text formatted as a phone number
// (+7 (999) 123-45-67) while the user types.
type PhoneEntry struct {
	widget.Entry

	// OnDigitsChanged is called with the normalized digits after each edit.
	OnDigitsChanged func(digits string)

	last string
}

// NewPhoneEntry creates an empty phone entry.
func NewPhoneEntry() *PhoneEntry {
	e := &PhoneEntry{}
	e.ExtendBaseWidget(e)
	e.SetPlaceHolder("+7 (999) 123-45-67")
	e.Entry.OnChanged = e.reformat
	return e
}

func (e *PhoneEntry) reformat(text string) {
	digits := domain.NormalizePhone(text)
	// Deleting a separator removes the digit before it instead.
	if len(text) < len(e.last) && digits != "" && digits == domain.NormalizePhone(e.last) {
		digits = digits[:len(digits)-1]
	}

	formatted := domain.FormatPhone(digits)
	e.last = formatted
	if formatted != text {
		// SetText re-enters reformat once with an already formatted value.
		e.SetText(formatted)
		e.CursorColumn = len([]rune(formatted))
		return
	}
	if e.OnDigitsChanged != nil {
		e.OnDigitsChanged(digits)
	}
}

// Digits returns the entered phone number without formatting.
func (e *PhoneEntry) Digits() string {
	return domain.NormalizePhone(e.Text)
}
