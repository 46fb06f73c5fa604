package mocks

import (
	"fmt"
	godebug "runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/util"
)

var mockMonitorLog = util.Debug("monitor")

// recorder is shared by a MockMonitor and all its children
type recorder struct {
	m        sync.Mutex
	measures map[string][]float64
	counters map[string]float64
	reports  []string
}

// MockMonitor implements runtime.Monitor for tests. It records counters,
// measures and reported errors, and only prints with DEBUG=monitor.
//
// With panicOnError set, Error() and ReportError() panic, as does a panic
// recovered by CapturePanic().
type MockMonitor struct {
	tags         map[string]string
	prefix       string
	metadata     string
	panicOnError bool
	rec          *recorder
}

// NewMockMonitor returns a root MockMonitor.
func NewMockMonitor(panicOnError bool) *MockMonitor {
	return &MockMonitor{
		panicOnError: panicOnError,
		metadata:     "prefix=",
		rec: &recorder{
			measures: make(map[string][]float64),
			counters: make(map[string]float64),
		},
	}
}

func (m *MockMonitor) locked(fn func(r *recorder)) {
	m.rec.m.Lock()
	defer m.rec.m.Unlock()
	fn(m.rec)
}

func (m *MockMonitor) Measure(name string, value ...float64) {
	m.locked(func(r *recorder) {
		r.measures[m.prefix+name] = append(r.measures[m.prefix+name], value...)
	})
}

func (m *MockMonitor) Count(name string, value float64) {
	m.locked(func(r *recorder) { r.counters[m.prefix+name] += value })
}

func (m *MockMonitor) Time(name string, fn func()) {
	start := time.Now()
	fn()
	m.Measure(name, time.Since(start).Seconds()*1000)
}

// HasMeasure returns true if name has been measured on this monitor's prefix
func (m *MockMonitor) HasMeasure(name string) (ok bool) {
	m.locked(func(r *recorder) { _, ok = r.measures[m.prefix+name] })
	return
}

// HasCounter returns true if name has been counted on this monitor's prefix
func (m *MockMonitor) HasCounter(name string) (ok bool) {
	m.locked(func(r *recorder) { _, ok = r.counters[m.prefix+name] })
	return
}

// CounterValue returns the sum counted for name, zero if never counted.
func (m *MockMonitor) CounterValue(name string) (value float64) {
	m.locked(func(r *recorder) { value = r.counters[m.prefix+name] })
	return
}

// Reports returns everything reported through ReportError, ReportWarning and
// CapturePanic, across all child monitors.
func (m *MockMonitor) Reports() (reports []string) {
	m.locked(func(r *recorder) { reports = append(reports, r.reports...) })
	return
}

// incident records and prints a report, it panics if fatal
func (m *MockMonitor) incident(kind, text, detail string, fatal bool) string {
	incidentID := uuid.NewRandom().String()
	m.locked(func(r *recorder) { r.reports = append(r.reports, kind+": "+text) })
	m.WithTag("incidentId", incidentID).(*MockMonitor).output(kind, text+detail)
	if fatal {
		panic(fmt.Sprintf("%s: %s", kind, text))
	}
	return incidentID
}

func (m *MockMonitor) CapturePanic(fn func()) (incidentID string) {
	defer func() {
		if crash := recover(); crash != nil {
			trace := "\nAt:\n" + string(godebug.Stack())
			incidentID = m.incident("PANIC", fmt.Sprint(crash), trace, m.panicOnError)
		}
	}()
	fn()
	return
}

func (m *MockMonitor) ReportError(err error, message ...interface{}) string {
	return m.incident("ERROR-REPORT", reportText(err, message), "", m.panicOnError)
}

func (m *MockMonitor) ReportWarning(err error, message ...interface{}) string {
	return m.incident("WARNING-REPORT", reportText(err, message), "", false)
}

func reportText(err error, message []interface{}) string {
	return fmt.Sprint(append([]interface{}{"error: ", err, " "}, message...)...)
}

func (m *MockMonitor) output(kind string, a ...interface{}) {
	mockMonitorLog("%s: %s (%s)", kind, fmt.Sprint(a...), m.metadata)
}

func (m *MockMonitor) Debug(a ...interface{})            { m.output("DEBUG", a...) }
func (m *MockMonitor) Debugln(a ...interface{})          { m.Debug(fmt.Sprintln(a...)) }
func (m *MockMonitor) Debugf(f string, a ...interface{}) { m.Debug(fmt.Sprintf(f, a...)) }
func (m *MockMonitor) Print(a ...interface{})            { m.Info(a...) }
func (m *MockMonitor) Println(a ...interface{})          { m.Info(fmt.Sprintln(a...)) }
func (m *MockMonitor) Printf(f string, a ...interface{}) { m.Info(fmt.Sprintf(f, a...)) }
func (m *MockMonitor) Info(a ...interface{})             { m.output("INFO", a...) }
func (m *MockMonitor) Infoln(a ...interface{})           { m.Info(fmt.Sprintln(a...)) }
func (m *MockMonitor) Infof(f string, a ...interface{})  { m.Info(fmt.Sprintf(f, a...)) }
func (m *MockMonitor) Warn(a ...interface{})             { m.output("WARN", a...) }
func (m *MockMonitor) Warnln(a ...interface{})           { m.Warn(fmt.Sprintln(a...)) }
func (m *MockMonitor) Warnf(f string, a ...interface{})  { m.Warn(fmt.Sprintf(f, a...)) }
func (m *MockMonitor) Errorln(a ...interface{})          { m.Error(fmt.Sprintln(a...)) }
func (m *MockMonitor) Errorf(f string, a ...interface{}) { m.Error(fmt.Sprintf(f, a...)) }
func (m *MockMonitor) Panicln(a ...interface{})          { m.Panic(fmt.Sprintln(a...)) }
func (m *MockMonitor) Panicf(f string, a ...interface{}) { m.Panic(fmt.Sprintf(f, a...)) }

func (m *MockMonitor) Error(a ...interface{}) {
	m.output("ERROR", a...)
	if m.panicOnError {
		panic(fmt.Sprint(a...))
	}
}

func (m *MockMonitor) Panic(a ...interface{}) {
	m.output("PANIC", a...)
	panic(fmt.Sprint(a...))
}

func (m *MockMonitor) child(tags map[string]string, prefix string) *MockMonitor {
	return &MockMonitor{
		tags:         tags,
		prefix:       prefix,
		metadata:     metadata(tags, prefix),
		panicOnError: m.panicOnError,
		rec:          m.rec,
	}
}

func (m *MockMonitor) WithTags(tags map[string]string) runtime.Monitor {
	merged := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	return m.child(merged, m.prefix)
}

func (m *MockMonitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

// WithPrefix returns a child monitor, its counters and measures are recorded
// as prefix + "." + name.
func (m *MockMonitor) WithPrefix(prefix string) runtime.Monitor {
	if prefix != "" {
		prefix += "."
	}
	return m.child(m.tags, m.prefix+prefix)
}

// metadata renders prefix and tags as sorted key=value pairs
func metadata(tags map[string]string, prefix string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := []string{"prefix=" + strings.TrimSuffix(prefix, ".")}
	for _, k := range keys {
		pairs = append(pairs, k+"="+tags[k])
	}
	return strings.Join(pairs, " ")
}
