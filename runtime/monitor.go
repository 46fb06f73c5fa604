package runtime

// A Monitor is responsible for collecting logs, stats and error messages.
//
// Implementations live in runtime/monitoring, and runtime/mocks provides one
// for use in tests.
type Monitor interface {
	// Measure values, for example the duration of an operation
	Measure(name string, value ...float64)
	// Increment counters
	Count(name string, value float64)
	// Measure time of fn
	Time(name string, fn func())

	// CapturePanic recovers from panic in fn, reports it and returns an
	// incidentID, if fn panicked.
	CapturePanic(fn func()) (incidentID string)

	// Report error/warning to sentry and write to log, returns incidentId which
	// can be included in status output, if relevant.
	ReportError(err error, message ...interface{}) string
	ReportWarning(err error, message ...interface{}) string

	// Write log messages to system log
	Debug(...interface{})
	Debugln(...interface{})
	Debugf(string, ...interface{})
	Print(...interface{})
	Println(...interface{})
	Printf(string, ...interface{})
	Info(...interface{})
	Infoln(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnln(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorln(...interface{})
	Errorf(string, ...interface{})
	Panic(...interface{})
	Panicln(...interface{})
	Panicf(string, ...interface{})

	// Create child monitor with given tags (tags don't apply to metrics)
	WithTags(tags map[string]string) Monitor
	WithTag(key, value string) Monitor
	// Create child monitor with given prefix (prefix applies to everything)
	WithPrefix(prefix string) Monitor
}
