package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders dialogue text as markdown
// using glamour. It auto-detects the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(text string) (string, error) { return text, nil }
	}

	return func(text string) (string, error) {
		return r.Render(text)
	}
}
