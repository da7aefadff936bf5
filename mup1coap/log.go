// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import "github.com/sirupsen/logrus"

// defaultLogger is used by any component constructed without an explicit
// logger (mirrors mlipscombe-boiler-mate's pattern of a package-configured
// logrus instance, but injected rather than global so the core stays
// testable in isolation).
var defaultLogger = logrus.NewEntry(logrus.StandardLogger())

// WithLogger returns a functional option that attaches a logger to a
// Controller constructed with New. The logger is shared by the
// tracker, dispatcher and reassembler the controller owns.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}
