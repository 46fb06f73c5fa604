package monitoring

import (
	"fmt"
	godebug "runtime/debug"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/taskcluster/agent-retention/runtime"
)

// newLogger panics on an unknown level, the config schema only admits levels
// logrus knows.
func newLogger(logLevel string) *logrus.Logger {
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		panic(fmt.Sprintf("unsupported log-level: %s", logLevel))
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger
}

func tagFields(tags map[string]string) logrus.Fields {
	fields := make(logrus.Fields, len(tags))
	for k, v := range tags {
		fields[k] = v
	}
	return fields
}

// logIncident writes err at level with a fresh incident id and returns the id.
func logIncident(entry *logrus.Entry, level logrus.Level, err error, message ...interface{}) string {
	incidentID := uuid.NewRandom().String()
	entry.WithField("incidentId", incidentID).WithError(err).Log(level, message...)
	return incidentID
}

// loggingMonitor writes metrics as debug log lines and never reports to
// sentry. It's used when no metrics project is configured.
type loggingMonitor struct {
	*logrus.Entry
	prefix string
}

// NewLoggingMonitor creates a Monitor that only writes to the log, and syslog
// if syslogName is given.
func NewLoggingMonitor(logLevel string, tags map[string]string, syslogName string) runtime.Monitor {
	logger := newLogger(logLevel)
	m := &loggingMonitor{Entry: logrus.NewEntry(logger).WithFields(tagFields(tags))}
	if syslogName != "" {
		if err := setupSyslog(logger, syslogName); err != nil {
			m.ReportError(err, "cannot set up syslog output")
		}
	}
	return m
}

func (m *loggingMonitor) metric(kind, name string) *logrus.Entry {
	return m.Entry.WithField(kind, m.prefix+name)
}

func (m *loggingMonitor) Measure(name string, value ...float64) {
	m.metric("measure", name).WithField("values", value).Debug("measure recorded")
}

func (m *loggingMonitor) Count(name string, value float64) {
	m.metric("counter", name).WithField("value", value).Debug("counter incremented")
}

func (m *loggingMonitor) Time(name string, fn func()) {
	start := time.Now()
	fn()
	m.Measure(name, time.Since(start).Seconds()*1000)
}

func (m *loggingMonitor) CapturePanic(fn func()) (incidentID string) {
	defer func() {
		if crash := recover(); crash != nil {
			incidentID = logIncident(
				m.Entry.WithField("stack", string(godebug.Stack())), logrus.ErrorLevel,
				fmt.Errorf("panic: %v", crash), "recovered from panic",
			)
		}
	}()
	fn()
	return
}

func (m *loggingMonitor) ReportError(err error, message ...interface{}) string {
	return logIncident(m.Entry, logrus.ErrorLevel, err, message...)
}

func (m *loggingMonitor) ReportWarning(err error, message ...interface{}) string {
	return logIncident(m.Entry, logrus.WarnLevel, err, message...)
}

func (m *loggingMonitor) WithTags(tags map[string]string) runtime.Monitor {
	fields := tagFields(tags)
	fields["prefix"] = strings.TrimSuffix(m.prefix, ".") // tags can't overwrite prefix
	return &loggingMonitor{Entry: m.Entry.WithFields(fields), prefix: m.prefix}
}

func (m *loggingMonitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

func (m *loggingMonitor) WithPrefix(prefix string) runtime.Monitor {
	prefix = m.prefix + prefix
	return &loggingMonitor{Entry: m.Entry.WithField("prefix", prefix), prefix: prefix + "."}
}
