package scenario

import (
	"fmt"
	"time"
)

// Kind is the type of a recorded signal.
type Kind int

const (
	KindNext Kind = iota
	KindError
	KindComplete
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one recorded signal.
type Event[T any] struct {
	Kind  Kind
	Value T
	Err   error
	// Seq is the 0-based position in the recording.
	Seq int
	// At is the virtual time elapsed when the signal arrived; set only when Timed.
	At    time.Duration
	Timed bool
}

func (e Event[T]) String() string {
	var body string
	switch e.Kind {
	case KindNext:
		body = fmt.Sprintf("next(%v)", e.Value)
	case KindError:
		body = fmt.Sprintf("error(%v)", e.Err)
	default:
		body = e.Kind.String()
	}
	if e.Timed {
		return fmt.Sprintf("#%d %s @%s", e.Seq, body, e.At)
	}
	return fmt.Sprintf("#%d %s", e.Seq, body)
}
