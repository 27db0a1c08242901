// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package bus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/pmoreau84/apiarius/internal/logging"
)

// watermillLogger bridges Watermill's LoggerAdapter onto zerolog so bus
// internals log through the same pipeline as everything else.
type watermillLogger struct {
	log zerolog.Logger
}

// NewWatermillLogger returns a LoggerAdapter backed by the global logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{log: logging.With().Str("component", "bus").Logger()}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.log.Error().Err(err), msg, fields)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.log.Info(), msg, fields)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.log.Trace(), msg, fields)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &watermillLogger{log: ctx.Logger()}
}

func (l *watermillLogger) event(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
