package check

import (
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskcluster/agent-retention/runtime/mocks"
)

func decide(t *testing.T, argv ...string) string {
	args, err := docopt.Parse(cmd{}.Usage(), append([]string{"check"}, argv...), true, "", false, false)
	require.NoError(t, err)
	o, err := parseOptions(args)
	require.NoError(t, err)
	r, err := evaluate(o, mocks.NewMockMonitor(true))
	require.NoError(t, err)
	return r.Decision
}

func TestBillingHour(t *testing.T) {
	assert.Equal(t, None, decide(t, "--uptime=58m", "--", "-2"))
	assert.Equal(t, IdleTimeout, decide(t, "--uptime=59m", "--", "-2"))
	assert.Equal(t, IdleTimeout, decide(t, "--uptime=119m30s", "--", "-2"))
	assert.Equal(t, None, decide(t, "--uptime=60m", "--", "-2"))
	assert.Equal(t, None, decide(t, "--uptime=59m", "--busy", "--", "-2"))
	assert.Equal(t, None, decide(t, "--uptime=59m", "--offline", "--", "-2"))
}

func TestIdleMinutes(t *testing.T) {
	assert.Equal(t, IdleTimeout, decide(t, "--uptime=3h", "15"))
	assert.Equal(t, None, decide(t, "--uptime=3h", "--idle=14m", "15"))
	assert.Equal(t, IdleTimeout, decide(t, "--uptime=3h", "--idle=15m", "15"))
	assert.Equal(t, None, decide(t, "--uptime=3h", "0"))
}

func TestTaskCompleted(t *testing.T) {
	assert.Equal(t, Terminate, decide(t, "--task-completed", "--usage-limit=0", "--", "-2"))
	assert.Equal(t, Terminate, decide(t, "--task-completed", "--usage-limit=1", "--", "-2"))
	assert.Equal(t, None, decide(t, "--task-completed", "--usage-limit=2", "--", "-2"))
	assert.Equal(t, None, decide(t, "--task-completed", "--", "-2"))
}

func TestInvalidOptions(t *testing.T) {
	for _, argv := range [][]string{
		{"--uptime=forever", "5"},
		{"--idle=-5m", "5"},
		{"--usage-limit=many", "5"},
		{"--usage-limit=-3", "5"},
	} {
		args, err := docopt.Parse(cmd{}.Usage(), append([]string{"check"}, argv...), true, "", false, false)
		require.NoError(t, err)
		_, err = parseOptions(args)
		assert.Error(t, err, "expected %v to be rejected", argv)
	}

	args, err := docopt.Parse(cmd{}.Usage(), []string{"check", "ten"}, true, "", false, false)
	require.NoError(t, err)
	o, err := parseOptions(args)
	require.NoError(t, err)
	_, err = evaluate(o, mocks.NewMockMonitor(true))
	assert.Error(t, err)
}
