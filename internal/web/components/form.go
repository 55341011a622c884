package components

import (
	"context"

	"github.com/a-h/templ"
)

// Input renders a labelled input field.
func Input(label, name, kind, value string, required bool) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		h.Printf(`<label for="%s">%s</label>`, name, label)
		h.Printf(`<input id="%s" name="%s" type="%s" value="%s"`, name, name, kind, value)
		if required {
			h.Raw(` required`)
		}
		h.Raw(`>`)
	})
}

// TextArea renders a labelled textarea.
func TextArea(label, name, value string, rows int) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		h.Printf(`<label for="%s">%s</label>`, name, label)
		h.Printf(`<textarea id="%s" name="%s" rows="%d">%s</textarea>`, name, name, rows, value)
	})
}

// Checkbox renders a labelled checkbox.
func Checkbox(label, name string, checked bool) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		h.Printf(`<label class="checkbox"><input type="checkbox" name="%s" value="true"`, name)
		if checked {
			h.Raw(` checked`)
		}
		h.Printf(`> %s</label>`, label)
	})
}

// PostButton renders a form with a single submit button.
func PostButton(action, label, class, confirm string) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		h.Printf(`<form method="post" action="%s" class="inline"`, action)
		if confirm != "" {
			h.Printf(` onsubmit="return confirm('%s')"`, confirm)
		}
		h.Printf(`><button type="submit" class="%s">%s</button></form>`, class, label)
	})
}
