// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

// Operator derives a new observable from a source observable.
type Operator[A, B any] func(src Observable[A]) Observable[B]

// Lift builds an operator from a relay. On every subscription to the derived
// observable, 'relay' is called with the downstream subscriber and the
// returned observer is subscribed to the source. Unsubscribing the derived
// observable unsubscribes the source.
//
// The relay decides what to forward to 'dst'. Relays that only transform
// items should pass Error and Complete through unchanged.
func Lift[A, B any](relay func(dst *Subscriber[B]) Observer[A]) Operator[A, B] {
	return func(src Observable[A]) Observable[B] {
		return New[B](func(dst *Subscriber[B]) Teardown {
			upstream := src.Subscribe(liftedObserver[A, B]{dst, relay(dst)})
			return upstream.Unsubscribe
		})
	}
}

// liftedObserver stops feeding the relay once downstream has closed. This
// matters for synchronous sources that keep emitting before the upstream
// subscription has been linked to downstream.
type liftedObserver[A, B any] struct {
	dst   *Subscriber[B]
	relay Observer[A]
}

func (l liftedObserver[A, B]) Next(item A) {
	if !l.dst.Closed() {
		l.relay.Next(item)
	}
}

func (l liftedObserver[A, B]) Error(err error) { l.relay.Error(err) }
func (l liftedObserver[A, B]) Complete()       { l.relay.Complete() }

// Map applies a function onto each item. A panic in 'apply' terminates the
// stream with a *PanicError.
func Map[A, B any](apply func(A) B) Operator[A, B] {
	return Lift[A, B](func(dst *Subscriber[B]) Observer[A] {
		return ObserverFuncs[A]{
			NextFunc: func(a A) {
				var b B
				if err := recoverPanic(func() { b = apply(a) }); err != nil {
					dst.Error(err)
					return
				}
				dst.Next(b)
			},
			ErrorFunc:    dst.Error,
			CompleteFunc: dst.Complete,
		}
	})
}

// Filter keeps only the items for which 'pred' returns true. A panic in
// 'pred' terminates the stream with a *PanicError.
func Filter[T any](pred func(T) bool) Operator[T, T] {
	return Lift[T, T](func(dst *Subscriber[T]) Observer[T] {
		return ObserverFuncs[T]{
			NextFunc: func(item T) {
				var keep bool
				if err := recoverPanic(func() { keep = pred(item) }); err != nil {
					dst.Error(err)
					return
				}
				if keep {
					dst.Next(item)
				}
			},
			ErrorFunc:    dst.Error,
			CompleteFunc: dst.Complete,
		}
	})
}
