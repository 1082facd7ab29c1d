// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"sync"
	"testing"
)

//
// Test helpers
//

func assertSlice[T comparable](t *testing.T, what string, expected []T, actual []T) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("assertSlice[%s]: expected %d items, got %d (%v)", what, len(expected), len(actual), actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("assertSlice[%s]: at index %d, expected %v, got %v", what, i, expected[i], actual[i])
		}
	}
}

func assertNil(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error in %s: %s", what, err)
	}
}

func assertCount(t *testing.T, what string, expected int, actual int) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %d, got %d", what, expected, actual)
	}
}

// recorder is an observer that records everything it receives.
type recorder[T any] struct {
	mu        sync.Mutex
	items     []T
	errs      []error
	completes int
}

func (r *recorder[T]) Next(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

func (r *recorder[T]) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func (r *recorder[T]) snapshot() (items []T, errs []error, completes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T{}, r.items...), append([]error{}, r.errs...), r.completes
}

// manual is a source driven by the test. It keeps the subscriber of the
// latest subscription so the test can emit into it at any time, and counts
// subscriptions and teardowns.
type manual[T any] struct {
	subscriber *Subscriber[T]
	subscribes int
	teardowns  int
}

func (m *manual[T]) observable() Observable[T] {
	return New[T](func(s *Subscriber[T]) Teardown {
		m.subscribes++
		m.subscriber = s
		return func() { m.teardowns++ }
	})
}
