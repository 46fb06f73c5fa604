package monitoring

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	raven "github.com/getsentry/raven-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/taskcluster/agent-retention/runtime"
)

// NewMonitor creates a monitor that logs with logrus, exports measures and
// counters to registry as Prometheus metrics in the c.Project namespace, and
// reports errors to sentry if c.SentryDSN is given.
func NewMonitor(c Config, registry prometheus.Registerer) runtime.Monitor {
	logger := newLogger(c.LogLevel)

	m := &monitor{
		metrics: &metrics{
			namespace: c.Project,
			registry:  registry,
			counters:  make(map[string]prometheus.Counter),
			summaries: make(map[string]prometheus.Summary),
		},
		Entry: logrus.NewEntry(logger).WithFields(tagFields(c.Tags)),
		sentry: &sentry{
			project: c.Project,
		},
		tags: c.Tags,
	}

	if c.SentryDSN != "" {
		client, err := raven.New(c.SentryDSN)
		if err != nil {
			m.Entry.WithError(err).Error("invalid sentry DSN, errors will only be logged")
		} else {
			m.sentry.client = client
		}
	}

	if c.Syslog != "" {
		if err := setupSyslog(logger, c.Syslog); err != nil {
			m.ReportError(err, "cannot set up syslog output")
		}
	}

	return m
}

var invalidMetricChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// metrics lazily creates and registers a Prometheus collector per name
type metrics struct {
	namespace string
	registry  prometheus.Registerer
	m         sync.Mutex
	counters  map[string]prometheus.Counter
	summaries map[string]prometheus.Summary
}

func metricName(name string) string {
	return strings.Trim(invalidMetricChars.ReplaceAllString(name, "_"), "_")
}

func (s *metrics) register(c prometheus.Collector) prometheus.Collector {
	if err := s.registry.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(fmt.Sprintf("failed to register metric, error: %s", err))
	}
	return c
}

func (s *metrics) counter(name string) prometheus.Counter {
	s.m.Lock()
	defer s.m.Unlock()

	name = metricName(name) + "_total"
	if c, ok := s.counters[name]; ok {
		return c
	}
	c := s.register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: s.namespace,
		Name:      name,
		Help:      "Counter reported through runtime.Monitor",
	})).(prometheus.Counter)
	s.counters[name] = c
	return c
}

func (s *metrics) summary(name string) prometheus.Summary {
	s.m.Lock()
	defer s.m.Unlock()

	name = metricName(name)
	if c, ok := s.summaries[name]; ok {
		return c
	}
	c := s.register(prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace:  s.namespace,
		Name:       name,
		Help:       "Measure reported through runtime.Monitor",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})).(prometheus.Summary)
	s.summaries[name] = c
	return c
}

type sentry struct {
	client  *raven.Client
	project string
}

type monitor struct {
	*metrics
	*logrus.Entry
	*sentry
	tags   map[string]string
	prefix string
}

func (m *monitor) qualify(name string) string {
	if m.prefix == "" {
		return name
	}
	return m.prefix + "." + name
}

func (m *monitor) Measure(name string, value ...float64) {
	s := m.metrics.summary(m.qualify(name))
	for _, v := range value {
		s.Observe(v)
	}
}

func (m *monitor) Count(name string, value float64) {
	m.metrics.counter(m.qualify(name)).Add(value)
}

func (m *monitor) Time(name string, fn func()) {
	start := time.Now()
	fn()
	m.Measure(name, time.Since(start).Seconds()*1000)
}

func (m *monitor) CapturePanic(fn func()) (incidentID string) {
	defer func() {
		if crash := recover(); crash != nil {
			err := fmt.Errorf("panic: %v", crash)
			incidentID = logIncident(m.Entry, logrus.ErrorLevel, err, "recovered from panic")
			m.submitError(err, "recovered from panic", raven.ERROR, incidentID, 1)
		}
	}()
	fn()
	return
}

func (m *monitor) ReportError(err error, message ...interface{}) string {
	incidentID := logIncident(m.Entry, logrus.ErrorLevel, err, message...)
	m.submitError(err, fmt.Sprint(message...), raven.ERROR, incidentID, 1)
	return incidentID
}

func (m *monitor) ReportWarning(err error, message ...interface{}) string {
	incidentID := logIncident(m.Entry, logrus.WarnLevel, err, message...)
	m.submitError(err, fmt.Sprint(message...), raven.WARNING, incidentID, 1)
	return incidentID
}

func (m *monitor) submitError(err error, message string, level raven.Severity, incidentID string, skipFrames int) {
	if m.sentry.client == nil {
		return
	}

	// Capture stack trace
	exception := raven.NewException(err, raven.NewStacktrace(1+skipFrames, 5, []string{
		"github.com/taskcluster/agent-retention",
	}))

	// Create error packet
	text := fmt.Sprintf("Error: %s\nMessage: %s", err.Error(), message)
	packet := raven.NewPacket(text, exception)
	packet.Level = level
	packet.EventID = strings.Replace(incidentID, "-", "", -1)

	// Add incidentID, project and prefix to tags
	tags := make(map[string]string, len(m.tags)+3)
	for tag, value := range m.tags {
		tags[tag] = value
	}
	tags["incidentId"] = incidentID
	tags["prefix"] = m.prefix
	tags["project"] = m.sentry.project

	// Send packet
	_, done := m.sentry.client.Capture(packet, tags)
	if serr := <-done; serr != nil {
		m.Entry.WithError(serr).Error("Failed to send error to sentry")
	}
}

func (m *monitor) WithTags(tags map[string]string) runtime.Monitor {
	// Merge tags from monitor and tags
	allTags := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		allTags[k] = v
	}
	for k, v := range tags {
		allTags[k] = v
	}
	fields := tagFields(allTags)
	fields["prefix"] = m.prefix // don't allow overwrite "prefix"
	return &monitor{
		metrics: m.metrics,
		Entry:   m.Entry.WithFields(fields),
		sentry:  m.sentry,
		tags:    allTags,
		prefix:  m.prefix,
	}
}

func (m *monitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

func (m *monitor) WithPrefix(prefix string) runtime.Monitor {
	return &monitor{
		metrics: m.metrics,
		Entry:   m.Entry.WithField("prefix", m.qualify(prefix)),
		sentry:  m.sentry,
		tags:    m.tags,
		prefix:  m.qualify(prefix),
	}
}
