package scenario

import (
	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/stream"
)

// Source is the controllable input of a scenario. Values are delivered
// synchronously to the current subscribers in subscription order. Once the
// source has completed or failed every further call is rejected.
type Source[T any] struct {
	subject *stream.Subject[T]
}

// NewSource creates a source with no subscribers.
func NewSource[T any]() *Source[T] {
	return &Source[T]{subject: stream.NewSubject[T]()}
}

// Emit delivers v to every current subscriber.
func (s *Source[T]) Emit(v T) error {
	if !s.subject.Next(v) {
		return errors.ProtocolViolation("emit", "the source has already terminated")
	}
	return nil
}

// Complete terminates the source normally.
func (s *Source[T]) Complete() error {
	if !s.subject.Complete() {
		return errors.ProtocolViolation("complete", "the source has already terminated")
	}
	return nil
}

// Fail terminates the source with err.
func (s *Source[T]) Fail(err error) error {
	if !s.subject.Error(err) {
		return errors.ProtocolViolation("error", "the source has already terminated")
	}
	return nil
}

// Stream returns the stream handed to the pipeline factory. Each subscriber
// sees only what is emitted after it subscribes.
func (s *Source[T]) Stream() *stream.Stream[T] {
	return s.subject.Stream()
}

// Subscribers returns the number of active subscribers.
func (s *Source[T]) Subscribers() int {
	return s.subject.Subscribers()
}

// Terminated reports whether Complete or Fail has succeeded.
func (s *Source[T]) Terminated() bool {
	return s.subject.Terminated()
}
