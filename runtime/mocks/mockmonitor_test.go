package mocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMonitorCounters(t *testing.T) {
	m := NewMockMonitor(false)
	child := m.WithPrefix("fleet").(*MockMonitor)

	child.Count("idle-timeout", 1)
	child.Count("idle-timeout", 2)
	assert.True(t, child.HasCounter("idle-timeout"))
	assert.Equal(t, 3.0, child.CounterValue("idle-timeout"))

	// Counters are namespaced by prefix, but share a cache
	assert.False(t, m.HasCounter("idle-timeout"))
	assert.Equal(t, 3.0, m.CounterValue("fleet.idle-timeout"))
}

func TestMockMonitorReports(t *testing.T) {
	m := NewMockMonitor(false)
	m.WithTag("agent", "a1").ReportWarning(errors.New("uptime unavailable"), "check failed")
	reports := m.Reports()
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0], "uptime unavailable")
}

func TestMockMonitorPanicOnError(t *testing.T) {
	m := NewMockMonitor(true)
	assert.Panics(t, func() {
		m.ReportError(errors.New("boom"))
	})
	assert.NotPanics(t, func() {
		m.ReportWarning(errors.New("not fatal"))
	})
	assert.Panics(t, func() {
		m.CapturePanic(func() { panic("crash") })
	})
}

func TestMockMonitorCapturePanic(t *testing.T) {
	m := NewMockMonitor(false)
	id := m.CapturePanic(func() { panic("crash") })
	assert.NotEmpty(t, id)
	assert.Empty(t, m.CapturePanic(func() {}))
}
