// Package logging provides the store's one shared logger. It exists mainly
// to give the codec layer somewhere to put the warning spec §9 calls for
// (the zlib trailer leniency case); callers that don't care can ignore it.
package logging

import "github.com/sirupsen/logrus"

var log = logrus.New()

// Logger returns the package-wide logrus logger.
func Logger() *logrus.Logger { return log }

// SetLevel adjusts verbosity; tests default to logrus' standard Info level.
func SetLevel(level logrus.Level) { log.SetLevel(level) }
