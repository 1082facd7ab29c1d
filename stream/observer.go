// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

// Observer consumes the items of a stream followed by at most one terminal
// event: Error or Complete.
type Observer[T any] interface {
	Next(item T)
	Error(err error)
	Complete()
}

// ObserverFuncs implements Observer with functions. Any of the functions
// may be nil. When ErrorFunc is nil the error is passed to the error
// handler (see SetErrorHandler) rather than dropped.
type ObserverFuncs[T any] struct {
	NextFunc     func(T)
	ErrorFunc    func(error)
	CompleteFunc func()
}

var _ Observer[int] = ObserverFuncs[int]{}

func (o ObserverFuncs[T]) Next(item T) {
	if o.NextFunc != nil {
		o.NextFunc(item)
	}
}

func (o ObserverFuncs[T]) Error(err error) {
	if o.ErrorFunc != nil {
		o.ErrorFunc(err)
		return
	}
	reportError(err)
}

func (o ObserverFuncs[T]) Complete() {
	if o.CompleteFunc != nil {
		o.CompleteFunc()
	}
}
