package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testCommand struct {
	executed map[string]interface{}
}

func (testCommand) Summary() string { return "Command for testing" }
func (testCommand) Usage() string   { return "usage: agent-retention test-command [--flag] <arg>" }
func (c *testCommand) Execute(args map[string]interface{}) bool {
	c.executed = args
	return args["<arg>"] == "ok"
}

func TestRegisterAndRun(t *testing.T) {
	c := &testCommand{}
	Register("test-command", c)
	assert.Panics(t, func() {
		Register("test-command", c)
	}, "duplicate names must panic")

	assert.Contains(t, Usage(), "test-command Command for testing")

	assert.True(t, run([]string{"test-command", "--flag", "ok"}))
	assert.Equal(t, true, c.executed["--flag"])
	assert.False(t, run([]string{"test-command", "fail"}))
	assert.False(t, run([]string{"missing-command"}))
}

func TestNamesAreSorted(t *testing.T) {
	Register("zz-last", &testCommand{})
	Register("aa-first", &testCommand{})
	names := Names()
	assert.Equal(t, "aa-first", names[0])
	assert.Equal(t, "zz-last", names[len(names)-1])
}
