// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/godshot/godshot/internal/logging"
)

// LoggerAdapter implements watermill.LoggerAdapter using zerolog as the
// backend, so router and transport internals log through the application
// logger instead of watermill's own.
type LoggerAdapter struct {
	logger zerolog.Logger
}

// NewLoggerAdapter creates a watermill logger that wraps the global zerolog logger.
func NewLoggerAdapter() *LoggerAdapter {
	return &LoggerAdapter{logger: logging.Logger()}
}

// NewLoggerAdapterWithLogger creates a watermill logger with a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLoggerAdapterWithLogger(logger zerolog.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

// Error logs an error message with fields.
func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	addFields(a.logger.Error().Err(err), fields).Msg(msg)
}

// Info logs an informational message with fields.
func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	addFields(a.logger.Info(), fields).Msg(msg)
}

// Debug logs a debug message with fields.
func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	addFields(a.logger.Debug(), fields).Msg(msg)
}

// Trace logs a trace message with fields.
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	addFields(a.logger.Trace(), fields).Msg(msg)
}

// With returns a logger carrying the given fields on every message.
func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &LoggerAdapter{logger: ctx.Logger()}
}

// addFields adds watermill log fields to a zerolog event.
func addFields(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			event = event.Str(k, val)
		case int:
			event = event.Int(k, val)
		case bool:
			event = event.Bool(k, val)
		case error:
			event = event.AnErr(k, val)
		default:
			event = event.Interface(k, v)
		}
	}
	return event
}
