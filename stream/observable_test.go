// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"errors"
	"fmt"
	"testing"
)

func TestSubscribeMapFilter(t *testing.T) {
	src := New[int](func(s *Subscriber[int]) Teardown {
		s.Next(1)
		s.Next(2)
		s.Next(3)
		s.Complete()
		return nil
	})

	rec := &recorder[int]{}
	src.Pipe(
		Map(func(x int) int { return x * 10 }),
		Filter(func(x int) bool { return x >= 20 }),
	).Subscribe(rec)

	items, errs, completes := rec.snapshot()
	assertSlice(t, "items", []int{20, 30}, items)
	assertCount(t, "errors", 0, len(errs))
	assertCount(t, "completes", 1, completes)
}

func TestUnsubscribeBeforeEmit(t *testing.T) {
	m := &manual[int]{}
	rec := &recorder[int]{}
	sub := m.observable().Subscribe(rec)

	sub.Unsubscribe()
	assertCount(t, "teardowns", 1, m.teardowns)

	// Misbehaving producer keeps emitting.
	m.subscriber.Next(1)
	m.subscriber.Error(errors.New("late"))
	m.subscriber.Complete()

	items, errs, completes := rec.snapshot()
	assertCount(t, "items", 0, len(items))
	assertCount(t, "errors", 0, len(errs))
	assertCount(t, "completes", 0, completes)

	sub.Unsubscribe()
	assertCount(t, "teardowns after second unsubscribe", 1, m.teardowns)
}

func TestCompleteThenNext(t *testing.T) {
	teardowns := 0
	src := New[int](func(s *Subscriber[int]) Teardown {
		s.Complete()
		s.Next(99)
		return func() { teardowns++ }
	})

	rec := &recorder[int]{}
	sub := src.Subscribe(rec)

	items, errs, completes := rec.snapshot()
	assertCount(t, "items", 0, len(items))
	assertCount(t, "errors", 0, len(errs))
	assertCount(t, "completes", 1, completes)

	// The teardown returned after the synchronous completion is
	// released right away.
	assertCount(t, "teardowns", 1, teardowns)
	sub.Unsubscribe()
	assertCount(t, "teardowns", 1, teardowns)
}

func TestObservableIsCold(t *testing.T) {
	m := &manual[string]{}
	src := m.observable()

	rec1, rec2 := &recorder[string]{}, &recorder[string]{}
	sub1 := src.Subscribe(rec1)
	s1 := m.subscriber
	sub2 := src.Subscribe(rec2)
	s2 := m.subscriber
	assertCount(t, "subscribes", 2, m.subscribes)

	s1.Next("a")
	s2.Next("b")
	sub1.Unsubscribe()
	s1.Next("c")
	s2.Next("d")

	items1, _, _ := rec1.snapshot()
	items2, _, _ := rec2.snapshot()
	assertSlice(t, "first", []string{"a"}, items1)
	assertSlice(t, "second", []string{"b", "d"}, items2)
	assertCount(t, "teardowns", 1, m.teardowns)

	sub2.Unsubscribe()
	assertCount(t, "teardowns", 2, m.teardowns)
}

func TestProducerPanic(t *testing.T) {
	teardowns := 0
	src := New[int](func(s *Subscriber[int]) Teardown {
		s.Next(1)
		panic("producer failed")
	})
	rec := &recorder[int]{}
	sub := src.Subscribe(rec)
	sub.Add(func() { teardowns++ })

	items, errs, completes := rec.snapshot()
	assertSlice(t, "items", []int{1}, items)
	assertCount(t, "errors", 1, len(errs))
	assertCount(t, "completes", 0, completes)

	var panicErr *PanicError
	if !errors.As(errs[0], &panicErr) {
		t.Fatalf("expected *PanicError, got %T", errs[0])
	}
	if panicErr.Value != "producer failed" {
		t.Fatalf("unexpected panic value: %v", panicErr.Value)
	}
	// The subscription was already torn down by the error.
	assertCount(t, "teardowns", 1, teardowns)
}

func TestUnhandledError(t *testing.T) {
	var reported []error
	defer SetErrorHandler(func(err error) { reported = append(reported, err) })()

	errFoo := errors.New("foo")
	nexts := 0
	Error[int](errFoo).Subscribe(ObserverFuncs[int]{
		NextFunc: func(int) { nexts++ },
	})

	assertCount(t, "nexts", 0, nexts)
	assertCount(t, "reported", 1, len(reported))
	if reported[0] != errFoo {
		t.Fatalf("expected %s to be reported, got %s", errFoo, reported[0])
	}
}

func TestPipeChangesType(t *testing.T) {
	src := Of(1, 2, 3, 4)

	// 1. Pipe2
	{
		rec := &recorder[string]{}
		Pipe2(
			src,
			Filter(func(x int) bool { return x%2 == 0 }),
			Map(func(x int) string { return fmt.Sprintf("<%d>", x) }),
		).Subscribe(rec)
		items, _, completes := rec.snapshot()
		assertSlice(t, "case 1", []string{"<2>", "<4>"}, items)
		assertCount(t, "case 1 completes", 1, completes)
	}

	// 2. Pipe3: map, filter, map as in the interval demo
	{
		rec := &recorder[string]{}
		Pipe3(
			src,
			Map(func(x int) int { return x + 100 }),
			Filter(func(x int) bool { return x%2 == 0 }),
			Map(func(x int) string { return fmt.Sprintf("%d111", x) }),
		).Subscribe(rec)
		items, _, _ := rec.snapshot()
		assertSlice(t, "case 2", []string{"102111", "104111"}, items)
	}

	// 3. Pipe4
	{
		rec := &recorder[float64]{}
		Pipe4(
			src,
			Map(func(x int) int { return x * x }),
			Filter(func(x int) bool { return x > 1 }),
			Map(func(x int) float64 { return float64(x) / 2 }),
			Filter(func(x float64) bool { return x < 8 }),
		).Subscribe(rec)
		items, _, _ := rec.snapshot()
		assertSlice(t, "case 3", []float64{2, 4.5}, items)
	}
}

func TestLet(t *testing.T) {
	// 1. Let as a method chaining an operator
	{
		rec := &recorder[int]{}
		Of(1, 2, 3).Let(Map(func(x int) int { return -x })).Subscribe(rec)
		items, _, _ := rec.snapshot()
		assertSlice(t, "case 1", []int{-1, -2, -3}, items)
	}

	// 2. Let subscribing immediately
	{
		rec := &recorder[int]{}
		sub := Let(Of(7), func(src Observable[int]) *Subscription {
			return src.Subscribe(rec)
		})
		sub.Unsubscribe()
		items, _, completes := rec.snapshot()
		assertSlice(t, "case 2", []int{7}, items)
		assertCount(t, "case 2 completes", 1, completes)
	}
}
