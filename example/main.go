// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joamaki/pushstream/stream"
)

// counter is the state of one subscription to the counter observable.
type counter struct {
	s     *stream.Subscriber[int]
	n     int
	limit int
}

// tick emits the next count and completes once past the limit. The item
// emitted after completion is dropped by the subscriber.
func (c *counter) tick() {
	c.s.Next(c.n)
	c.n++
	if c.n > c.limit {
		c.s.Complete()
		c.s.Next(-1)
	}
}

// newCounter returns an observable that counts up every 'interval'.
func newCounter(interval time.Duration, limit int) stream.Observable[int] {
	return stream.New[int](func(s *stream.Subscriber[int]) stream.Teardown {
		c := &counter{s: s, limit: limit}
		ticker := time.NewTicker(interval)
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					c.tick()
				}
			}
		}()
		return func() {
			log.Info("Tearing down counter")
			ticker.Stop()
			close(stop)
		}
	})
}

// logObserver logs everything it receives and closes 'done' on a terminal
// event.
func logObserver[T any](name string, done chan<- struct{}) stream.Observer[T] {
	l := log.WithField("stream", name)
	return stream.ObserverFuncs[T]{
		NextFunc: func(item T) { l.WithField("item", item).Info("Next") },
		ErrorFunc: func(err error) {
			l.WithError(err).Error("Stream failed")
			close(done)
		},
		CompleteFunc: func() {
			l.Info("Done")
			close(done)
		},
	}
}

func runCounter(cfg *Config) {
	lines := stream.Pipe3(
		newCounter(cfg.CounterInterval, cfg.CounterLimit),
		stream.Map(func(x int) int { return x + 100 }),
		stream.Filter(func(x int) bool { return x%2 == 0 }),
		stream.Map(func(x int) string { return fmt.Sprintf("%d111", x) }),
	)

	done := make(chan struct{})
	sub := lines.Subscribe(logObserver[string]("counter", done))

	select {
	case <-done:
	case <-time.After(cfg.CounterCancelAfter):
		log.Info("Cancelling counter")
	}
	// Redundant after a terminal event, which has already torn the
	// stream down.
	sub.Unsubscribe()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if err := setupLogging(cfg); err != nil {
		log.WithError(err).Fatal("Invalid logging config")
	}

	runCounter(cfg)
	if err := runHTTPPoll(cfg); err != nil {
		log.WithError(err).Fatal("HTTP example failed")
	}
}
