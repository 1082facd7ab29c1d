// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import "sync"

// Teardown releases a resource acquired while subscribing, e.g. stops a
// ticker or unsubscribes from an upstream observable.
type Teardown func()

// Subscription is the cancellation handle returned by Subscribe. It owns the
// teardowns registered while the subscription was wired up and runs each of
// them at most once.
type Subscription struct {
	mu        sync.Mutex
	done      bool
	teardowns []Teardown
}

// Add registers a teardown to run on Unsubscribe. A nil teardown is ignored.
// If the subscription has already been unsubscribed the teardown runs
// immediately.
func (s *Subscription) Add(teardown Teardown) {
	if teardown == nil {
		return
	}
	s.mu.Lock()
	if !s.done {
		s.teardowns = append(s.teardowns, teardown)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	runTeardowns([]Teardown{teardown})
}

// Unsubscribe runs all pending teardowns in the order they were added.
// Calling it again is a no-op.
//
// A panicking teardown does not stop the rest from running. The failures
// are collected into a *TeardownError and passed to the error handler
// (see SetErrorHandler).
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	teardowns := s.teardowns
	s.teardowns = nil
	s.done = true
	s.mu.Unlock()

	// Teardowns run without the lock held as they may call back into
	// this subscription, e.g. via a terminal event.
	runTeardowns(teardowns)
}

func runTeardowns(teardowns []Teardown) {
	var errs []error
	for _, teardown := range teardowns {
		if err := recoverPanic(teardown); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		reportError(&TeardownError{Errs: errs})
	}
}
