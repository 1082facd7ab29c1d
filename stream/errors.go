// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// ErrEmpty is returned by First when the stream completes without emitting.
var ErrEmpty = errors.New("stream completed without items")

// PanicError carries a panic recovered from a producer, a transform function
// of an operator or a teardown.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace of the panicking goroutine.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TeardownError is reported when teardowns of a subscription failed. All
// teardowns are attempted even if an earlier one failed.
type TeardownError struct {
	Errs []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d teardown(s) failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *TeardownError) Unwrap() []error {
	return e.Errs
}

// recoverPanic runs 'f' and converts a panic into a *PanicError.
func recoverPanic(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	f()
	return nil
}

var (
	errorHandlerMu sync.RWMutex
	errorHandler   = defaultErrorHandler
)

func defaultErrorHandler(err error) {
	log.WithError(err).Error("Undeliverable stream error")
}

// SetErrorHandler sets the function that receives errors that cannot be
// delivered to an observer: failed teardowns and stream errors sent to an
// observer without an error callback. A nil handler restores the default,
// which logs the error. Returns a function that restores the previous handler.
func SetErrorHandler(handler func(error)) (restore func()) {
	if handler == nil {
		handler = defaultErrorHandler
	}
	errorHandlerMu.Lock()
	prev := errorHandler
	errorHandler = handler
	errorHandlerMu.Unlock()
	return func() {
		errorHandlerMu.Lock()
		errorHandler = prev
		errorHandlerMu.Unlock()
	}
}

func reportError(err error) {
	errorHandlerMu.RLock()
	handler := errorHandler
	errorHandlerMu.RUnlock()
	handler(err)
}
