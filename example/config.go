// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config of the example. Read from pushstream.{yaml,json,toml} in the
// working directory if present, and overridden by PUSHSTREAM_* environment
// variables, e.g. PUSHSTREAM_COUNTER_INTERVAL=200ms.
type Config struct {
	CounterInterval    time.Duration
	CounterLimit       int
	CounterCancelAfter time.Duration

	HTTPRate  float64
	HTTPBurst int
	HTTPPolls int

	LogLevel     string
	LogFormatter string
}

func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("counter.interval", time.Second)
	v.SetDefault("counter.limit", 3)
	v.SetDefault("counter.cancelafter", 5200*time.Millisecond)
	v.SetDefault("http.rate", 5.0)
	v.SetDefault("http.burst", 1)
	v.SetDefault("http.polls", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.formatter", "text")

	v.SetEnvPrefix("pushstream")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pushstream")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		CounterInterval:    v.GetDuration("counter.interval"),
		CounterLimit:       v.GetInt("counter.limit"),
		CounterCancelAfter: v.GetDuration("counter.cancelafter"),
		HTTPRate:           v.GetFloat64("http.rate"),
		HTTPBurst:          v.GetInt("http.burst"),
		HTTPPolls:          v.GetInt("http.polls"),
		LogLevel:           v.GetString("log.level"),
		LogFormatter:       v.GetString("log.formatter"),
	}, nil
}

func setupLogging(cfg *Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch cfg.LogFormatter {
	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&log.TextFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FullTimestamp:   true,
		})
	}
	return nil
}
