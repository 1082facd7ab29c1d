// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

// Package stream implements push-based, cancellable observable streams.
//
// An Observable describes a producer. Nothing happens until Subscribe is
// called, and every call runs the producer anew. The returned Subscription
// cancels the stream and releases whatever the producer acquired.
package stream

// Producer emits items to the subscriber and returns the teardown that
// releases its resources, or nil if there is nothing to release.
//
// The producer runs once per Subscribe. It may emit synchronously before
// returning or later from another goroutine. Emitting after the subscriber
// has closed is harmless.
type Producer[T any] func(s *Subscriber[T]) Teardown

// Observable is a lazy, replayable stream of T's.
type Observable[T any] struct {
	producer Producer[T]
}

// New creates an observable from a producer.
func New[T any](producer Producer[T]) Observable[T] {
	return Observable[T]{producer}
}

// Subscribe runs the producer with a fresh Subscriber wrapping 'observer'.
// The returned Subscription cancels the stream. A panic in the producer is
// recovered and delivered to the observer as a *PanicError.
func (o Observable[T]) Subscribe(observer Observer[T]) *Subscription {
	sub := new(Subscription)
	s := NewSubscriber(observer, sub)

	var teardown Teardown
	if err := recoverPanic(func() { teardown = o.producer(s) }); err != nil {
		s.Error(err)
	}
	sub.Add(teardown)
	return sub
}

// Pipe applies the operators from left to right. Use Pipe2, Pipe3 or Pipe4
// when the operators change the item type.
func (o Observable[T]) Pipe(ops ...Operator[T, T]) Observable[T] {
	for _, op := range ops {
		o = op(o)
	}
	return o
}

// Let applies 'fn' to the observable.
func (o Observable[T]) Let(fn func(Observable[T]) Observable[T]) Observable[T] {
	return fn(o)
}

// Let applies an arbitrary function to 'src', e.g. one that subscribes
// immediately or returns something else than an observable.
func Let[T, R any](src Observable[T], fn func(Observable[T]) R) R {
	return fn(src)
}

func Pipe2[A, B, C any](src Observable[A], op1 Operator[A, B], op2 Operator[B, C]) Observable[C] {
	return op2(op1(src))
}

func Pipe3[A, B, C, D any](src Observable[A], op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D]) Observable[D] {
	return op3(op2(op1(src)))
}

func Pipe4[A, B, C, D, E any](src Observable[A], op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D], op4 Operator[D, E]) Observable[E] {
	return op4(op3(op2(op1(src))))
}
