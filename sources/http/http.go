// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package http

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/joamaki/pushstream/stream"
)

type Option func(*http.Request)

func WithBasicAuth(username, password string) Option {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

func WithBody(body io.Reader) Option {
	return func(req *http.Request) {
		rc, ok := body.(io.ReadCloser)
		if !ok && body != nil {
			rc = io.NopCloser(body)
		}
		req.Body = rc
	}
}

func WithHeader(key, value string) Option {
	return func(req *http.Request) {
		req.Header.Add(key, value)
	}
}

func newRequest(ctx context.Context, method, url string, body io.Reader, options []Option) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		opt(req)
	}
	return req, nil
}

// do issues the request and emits the response. Returns false if the
// subscriber is gone or the request failed.
func do(s *stream.Subscriber[*http.Response], req *http.Request) bool {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if req.Context().Err() == nil {
			s.Error(err)
		}
		return false
	}
	if s.Closed() {
		resp.Body.Close()
		return false
	}
	s.Next(resp)
	return true
}

func single(method, url string, body io.Reader, options []Option) stream.Observable[*http.Response] {
	return stream.New[*http.Response](
		func(s *stream.Subscriber[*http.Response]) stream.Teardown {
			ctx, cancel := context.WithCancel(context.Background())
			req, err := newRequest(ctx, method, url, body, options)
			if err != nil {
				cancel()
				s.Error(err)
				return nil
			}
			go func() {
				if do(s, req) {
					s.Complete()
				}
			}()
			return stream.Teardown(cancel)
		})
}

// Get issues a GET request on each subscription and emits the response.
// The subscriber is responsible for closing the response body and must read
// it from within Next: the request is cancelled when the stream terminates
// or the subscription is cancelled.
func Get(url string, options ...Option) stream.Observable[*http.Response] {
	return single("GET", url, nil, options)
}

// Post issues a POST request on each subscription and emits the response.
// The body reader is shared by all subscriptions.
func Post(url string, body io.Reader, options ...Option) stream.Observable[*http.Response] {
	return single("POST", url, body, options)
}

// Poll issues GET requests at most 'ratePerSecond' times per second with
// bursts of 'burst' requests. The stream ends only on a request error or
// when the subscription is cancelled.
func Poll(url string, ratePerSecond float64, burst int, options ...Option) stream.Observable[*http.Response] {
	return stream.New[*http.Response](
		func(s *stream.Subscriber[*http.Response]) stream.Teardown {
			ctx, cancel := context.WithCancel(context.Background())
			limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)
			go func() {
				for {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
					req, err := newRequest(ctx, "GET", url, nil, options)
					if err != nil {
						s.Error(err)
						return
					}
					if !do(s, req) {
						return
					}
				}
			}()
			return stream.Teardown(cancel)
		})
}

// ResponseBody reads and closes the body of each response. A failure to read
// the body terminates the stream with the error.
func ResponseBody(src stream.Observable[*http.Response]) stream.Observable[[]byte] {
	return stream.Lift[*http.Response, []byte](
		func(dst *stream.Subscriber[[]byte]) stream.Observer[*http.Response] {
			return stream.ObserverFuncs[*http.Response]{
				NextFunc: func(resp *http.Response) {
					defer resp.Body.Close()
					body, err := io.ReadAll(resp.Body)
					if err != nil {
						dst.Error(err)
						return
					}
					dst.Next(body)
				},
				ErrorFunc:    dst.Error,
				CompleteFunc: dst.Complete,
			}
		})(src)
}
