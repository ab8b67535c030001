package console

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# webrelay console

Two independent flows share this screen: frames stream in from the
backend, and your input streams out to it. Neither waits for the other.

## Focus

| Key | Action |
|---|---|
| Tab / Shift+Tab | cycle endpoint field, URL field, page surface |
| F1 | toggle this help |
| Ctrl+C | quit |

## Endpoint and URL fields

Enter applies the field: the endpoint field reconnects the whole
session, the URL field navigates the remote page.

## Page surface

While the surface is focused, your keyboard and mouse drive the remote
page:

| Input | Remote effect |
|---|---|
| mouse move | hover |
| left click | click (also focuses the surface) |
| wheel | scroll the page, never the console |
| printable keys, Enter, arrows, etc. | key press |
| Alt+Left / Alt+Right | history back / forward |

Positions are sent as fractions of the rendered frame, so what you
point at is what the backend clicks, whatever the frame resolution.
`

// renderHelp renders the help overlay once per width.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width-2, 78)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
