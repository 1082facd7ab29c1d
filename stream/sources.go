// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"time"
)

//
// Sources, e.g. functions that create new observables.
//

// Of creates an observable that emits the given items and completes.
func Of[T any](items ...T) Observable[T] {
	return FromSlice(items)
}

// FromSlice converts a slice into an Observable.
func FromSlice[T any](items []T) Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown {
		for _, item := range items {
			if s.Closed() {
				return nil
			}
			s.Next(item)
		}
		s.Complete()
		return nil
	})
}

// Empty creates an empty observable that completes immediately.
func Empty[T any]() Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown {
		s.Complete()
		return nil
	})
}

// Error creates an observable that fails immediately with given error.
func Error[T any](err error) Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown {
		s.Error(err)
		return nil
	})
}

// Never creates an observable that never emits anything.
// Mainly meant for testing.
func Never[T any]() Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown { return nil })
}

// FromChannel creates an observable from a channel. The channel is consumed
// by the observers concurrently. The stream completes when the channel is
// closed.
func FromChannel[T any](in <-chan T) Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown {
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				case item, ok := <-in:
					if !ok {
						s.Complete()
						return
					}
					s.Next(item)
				}
			}
		}()
		return func() { close(stop) }
	})
}

// Interval emits an increasing counter starting from 0 every 'interval'.
// The ticker is stopped when the subscription is cancelled.
func Interval(interval time.Duration) Observable[int] {
	return New[int](func(s *Subscriber[int]) Teardown {
		ticker := time.NewTicker(interval)
		stop := make(chan struct{})
		go func() {
			defer ticker.Stop()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				case <-ticker.C:
					s.Next(i)
				}
			}
		}()
		return func() { close(stop) }
	})
}
