package fleet

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskcluster/agent-retention/runtime/util"
)

func TestActionOnceConcurrent(t *testing.T) {
	var o actionOnce
	m := sync.Mutex{}
	stops := 0
	util.Spawn(20, func(int) {
		_ = o.Stop(func() error {
			m.Lock()
			defer m.Unlock()
			stops++
			return nil
		})
	})
	assert.Equal(t, 1, stops)
}

func TestActionOnceNoStopAfterTerminate(t *testing.T) {
	var o actionOnce
	assert.NoError(t, o.Terminate(func() error { return nil }))
	called := false
	assert.NoError(t, o.Stop(func() error { called = true; return nil }))
	assert.False(t, called)

	assert.NoError(t, o.Terminate(func() error { return errors.New("called twice") }))
}

func TestActionOnceRetriesFailure(t *testing.T) {
	var o actionOnce
	assert.Error(t, o.Terminate(func() error { return errors.New("throttled") }))
	assert.NoError(t, o.Terminate(func() error { return nil }))
}
