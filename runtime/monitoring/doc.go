// Package monitoring provides multiple implementations of runtime.Monitor.
//
// In addition to supplying runtime.Monitor implementations this package also
// provides a ConfigSchema and a generic New(config) method that can be
// used to instantiate one of the implementations depending on configuration.
// This allows for configurable selection of monitoring strategy without
// complicating the application with configuration.
//
// The full monitor exports measures and counters as Prometheus metrics and,
// if a DSN is configured, reports errors to sentry.
package monitoring
