// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package logging provides the structured logger used throughout this
// module: a named component logger for package-level use, and a
// context-carried logger for call-scoped overrides.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type contextKey string

const loggerKey contextKey = "didcomm-go-logger"

var defaultHandler = slog.NewJSONHandler(os.Stdout, nil)

// Logger returns a logger tagged with the given component name, e.g.
//
//	var logger = logging.Logger("crypto/authcrypt")
func Logger(component string) *slog.Logger {
	return slog.New(defaultHandler).With("component", component)
}

// WithLogger attaches l to ctx so that FromContext can retrieve it later.
// Callers embedding this module in a service use this to route pack/unpack
// resolver-call tracing into their own logging pipeline.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or a default
// JSON-stdout logger if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}

	return slog.New(defaultHandler)
}
