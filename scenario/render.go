package scenario

import (
	"fmt"
	"strings"
)

// Renderer turns a value into its text form inside the rendered stream.
type Renderer[T any] func(T) string

// Rendered stream tokens.
const (
	DefaultSeparator = "-"
	CompleteToken    = "|"
	ErrorToken       = "#"
)

// DefaultRenderer formats values with fmt.Sprint.
func DefaultRenderer[T any](v T) string {
	return fmt.Sprint(v)
}

// Render joins events into the rendered form: a value becomes
// "[" + render(v) + "]", completion "|" and an error "#".
func Render[T any](events []Event[T], render Renderer[T], sep string) string {
	if render == nil {
		render = DefaultRenderer[T]
	}
	parts := make([]string, 0, len(events))
	for _, e := range events {
		switch e.Kind {
		case KindNext:
			parts = append(parts, "["+render(e.Value)+"]")
		case KindComplete:
			parts = append(parts, CompleteToken)
		case KindError:
			parts = append(parts, ErrorToken)
		}
	}
	return strings.Join(parts, sep)
}
