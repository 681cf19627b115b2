package stream

// Observer receives the signals of a Stream. After OnError or OnComplete no
// further signals are delivered by well-behaved producers.
type Observer[T any] interface {
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// ObserverFuncs adapts plain functions to Observer. Nil functions ignore the signal.
type ObserverFuncs[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

func (f ObserverFuncs[T]) OnNext(v T) {
	if f.Next != nil {
		f.Next(v)
	}
}

func (f ObserverFuncs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f ObserverFuncs[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

// Stream is a cold sequence of values. No work happens until Subscribe.
type Stream[T any] struct {
	onSubscribe func(o Observer[T], sub *Subscription)
}

// New creates a Stream from a subscribe function. The function must stop
// delivering once sub is no longer active.
func New[T any](onSubscribe func(o Observer[T], sub *Subscription)) *Stream[T] {
	return &Stream[T]{onSubscribe: onSubscribe}
}

// Subscribe starts the stream and returns the subscription controlling it.
func (s *Stream[T]) Subscribe(o Observer[T]) *Subscription {
	sub := NewSubscription()
	s.SubscribeWith(o, sub)
	return sub
}

// SubscribeWith starts the stream on a subscription created by the caller.
// Operators use it so they can link their own subscription before any
// signal is delivered.
func (s *Stream[T]) SubscribeWith(o Observer[T], sub *Subscription) {
	if !sub.Active() {
		return
	}
	s.onSubscribe(o, sub)
}

// --- Constructors ---

// FromSlice emits every item in order, then completes.
func FromSlice[T any](items []T) *Stream[T] {
	return Create(func(e Emitter[T]) {
		for _, item := range items {
			if !e.Next(item) {
				return
			}
		}
		e.Complete()
	})
}

// Just emits the given values, then completes.
func Just[T any](values ...T) *Stream[T] {
	return FromSlice(values)
}

// Empty completes immediately.
func Empty[T any]() *Stream[T] {
	return Create(func(e Emitter[T]) { e.Complete() })
}

// Fail terminates immediately with err.
func Fail[T any](err error) *Stream[T] {
	return Create(func(e Emitter[T]) { e.Error(err) })
}

// Never emits nothing and never terminates.
func Never[T any]() *Stream[T] {
	return New(func(Observer[T], *Subscription) {})
}

// Collect subscribes to a stream that terminates synchronously and returns
// what it emitted. Values delivered later are not collected.
func Collect[T any](s *Stream[T]) ([]T, error) {
	var (
		values []T
		err    error
	)
	sub := s.Subscribe(ObserverFuncs[T]{
		Next:  func(v T) { values = append(values, v) },
		Error: func(e error) { err = e },
	})
	sub.Unsubscribe()
	return values, err
}
