package util

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var debugLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.DebugLevel
	return l
}()

// Debug returns a printf style function that writes to stderr if the
// environment variable DEBUG contains name, or is '*'.
//
// Multiple names can be enabled by separating them with commas, as in
// DEBUG='monitor,fleet'.
func Debug(name string) func(format string, a ...interface{}) {
	enabled := false
	for _, n := range strings.Split(os.Getenv("DEBUG"), ",") {
		n = strings.TrimSpace(n)
		if n == name || n == "*" {
			enabled = true
		}
	}
	if !enabled {
		return func(string, ...interface{}) {}
	}
	entry := debugLogger.WithField("module", name)
	return func(format string, a ...interface{}) {
		entry.Debugf(format, a...)
	}
}
