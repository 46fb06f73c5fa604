package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	defer func(t, r string) { tags, revision = t, r }(tags, revision)

	tags = "latest\nv1.4.2\n"
	revision = "0123456789abcdef0123456789abcdef01234567"
	assert.Equal(t, "1.4.2", Version())
	assert.Equal(t, revision, Revision())
	assert.Equal(t, map[string]string{"version": "1.4.2"}, info(true, false))

	tags = "latest"
	revision = "0123"
	assert.Equal(t, map[string]string{
		"version":  "unknown",
		"revision": "unknown",
	}, info(false, false))
}
