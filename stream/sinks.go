// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"sync"
)

//
// Sinks: functions that subscribe to an observable and send the output somewhere.
//

// ToSlice subscribes to 'src' and collects the items until the stream
// terminates. If 'ctx' is cancelled first, the subscription is cancelled and
// ctx.Err() is returned along with the items received so far.
func ToSlice[T any](ctx context.Context, src Observable[T]) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return []T{}, err
	}

	var (
		mu    sync.Mutex
		items = make([]T, 0)
		err   error
		done  = make(chan struct{})
	)
	sub := src.Subscribe(ObserverFuncs[T]{
		NextFunc: func(item T) {
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
		},
		ErrorFunc: func(e error) {
			mu.Lock()
			err = e
			mu.Unlock()
			close(done)
		},
		CompleteFunc: func() { close(done) },
	})

	select {
	case <-done:
	case <-ctx.Done():
		sub.Unsubscribe()
		select {
		case <-done:
		default:
			mu.Lock()
			defer mu.Unlock()
			return append([]T{}, items...), ctx.Err()
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return items, err
}

type firstResult[T any] struct {
	item T
	err  error
}

// First returns the first item from 'src' and then cancels the subscription.
// Returns ErrEmpty if the stream completed without emitting.
func First[T any](ctx context.Context, src Observable[T]) (item T, err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	var (
		once    sync.Once
		results = make(chan firstResult[T], 1)
	)
	emit := func(r firstResult[T]) {
		once.Do(func() { results <- r })
	}

	sub := src.Subscribe(ObserverFuncs[T]{
		NextFunc:     func(x T) { emit(firstResult[T]{item: x}) },
		ErrorFunc:    func(e error) { emit(firstResult[T]{err: e}) },
		CompleteFunc: func() { emit(firstResult[T]{err: ErrEmpty}) },
	})
	defer sub.Unsubscribe()

	select {
	case r := <-results:
		return r.item, r.err
	case <-ctx.Done():
		return item, ctx.Err()
	}
}

// ToChannels converts an observable into an item channel and error channel.
// When the source terminates or 'ctx' is cancelled the item channel is closed
// and the final error (which may be nil) is sent to the error channel.
func ToChannels[T any](ctx context.Context, src Observable[T]) (<-chan T, <-chan error) {
	out := make(chan T, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)

		if err := ctx.Err(); err != nil {
			close(out)
			errs <- err
			return
		}

		var (
			mu        sync.RWMutex
			outClosed bool
			terminal  = make(chan error, 1)
		)
		sub := src.Subscribe(ObserverFuncs[T]{
			NextFunc: func(item T) {
				mu.RLock()
				defer mu.RUnlock()
				if outClosed {
					return
				}
				select {
				case out <- item:
				case <-ctx.Done():
				}
			},
			ErrorFunc:    func(err error) { terminal <- err },
			CompleteFunc: func() { terminal <- nil },
		})

		var err error
		select {
		case err = <-terminal:
		case <-ctx.Done():
			err = ctx.Err()
		}
		sub.Unsubscribe()

		mu.Lock()
		outClosed = true
		close(out)
		mu.Unlock()

		errs <- err
	}()

	return out, errs
}
