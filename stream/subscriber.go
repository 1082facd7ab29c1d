// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import "sync/atomic"

// Subscriber guards an observer for the lifetime of one subscription. Once
// closed, by a terminal event or by unsubscribing, all calls are dropped.
//
// Producers receive a *Subscriber and should call Next, Error and Complete
// sequentially.
type Subscriber[T any] struct {
	closed atomic.Bool
	dst    Observer[T]
	sub    *Subscription
}

var _ Observer[int] = &Subscriber[int]{}

// NewSubscriber wraps 'dst' and ties it to 'sub': unsubscribing 'sub' closes
// the subscriber.
func NewSubscriber[T any](dst Observer[T], sub *Subscription) *Subscriber[T] {
	s := &Subscriber[T]{dst: dst, sub: sub}
	sub.Add(func() { s.closed.Store(true) })
	return s
}

// Closed returns true after a terminal event or after the subscription was
// cancelled. Asynchronous producers can use it to stop early.
func (s *Subscriber[T]) Closed() bool {
	return s.closed.Load()
}

// Next forwards 'item' to the observer unless the subscriber is closed.
func (s *Subscriber[T]) Next(item T) {
	if !s.closed.Load() {
		s.dst.Next(item)
	}
}

// Error delivers 'err' to the observer and tears down the subscription.
// Only the first terminal event is delivered.
func (s *Subscriber[T]) Error(err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	defer s.sub.Unsubscribe()
	s.dst.Error(err)
}

// Complete signals the observer that the stream has ended and tears down the
// subscription. Only the first terminal event is delivered.
func (s *Subscriber[T]) Complete() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	defer s.sub.Unsubscribe()
	s.dst.Complete()
}
