// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	httpSource "github.com/joamaki/pushstream/sources/http"
	"github.com/joamaki/pushstream/stream"
)

func counterHandler() http.HandlerFunc {
	var hits atomic.Int64
	return func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		fmt.Fprintf(w, "hit %d (0x%x) at %s\n", n, n, time.Now().Format(time.StampMilli))
	}
}

func startHTTPServer() (string, *http.Server, error) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/counter", counterHandler())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: mux}

	go func() {
		srv.Serve(listener)
		listener.Close()
	}()
	return "http://" + listener.Addr().String(), srv, nil
}

// runHTTPPoll polls a local HTTP server and logs the responses until
// cfg.HTTPPolls responses have been received.
func runHTTPPoll(cfg *Config) error {
	if cfg.HTTPPolls <= 0 {
		return nil
	}
	url, srv, err := startHTTPServer()
	if err != nil {
		return err
	}
	defer srv.Shutdown(context.Background())

	lines := stream.Map(func(body []byte) string {
		return strings.TrimSpace(string(body))
	})(httpSource.ResponseBody(httpSource.Poll(url+"/counter", cfg.HTTPRate, cfg.HTTPBurst)))

	var (
		received atomic.Int64
		done     = make(chan struct{})
		failed   = make(chan error, 1)
	)
	sub := lines.Subscribe(stream.ObserverFuncs[string]{
		NextFunc: func(line string) {
			log.WithField("line", line).Info("Polled")
			if received.Add(1) == int64(cfg.HTTPPolls) {
				close(done)
			}
		},
		ErrorFunc: func(err error) { failed <- err },
	})
	defer sub.Unsubscribe()

	select {
	case <-done:
		return nil
	case err := <-failed:
		return err
	}
}
