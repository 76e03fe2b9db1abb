package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldVersion, oldBuild := Version, BuildTime
	t.Cleanup(func() { Version, BuildTime = oldVersion, oldBuild })

	Version, BuildTime = "9.9.9", "2026-01-02T03:04:05Z"
	assert.Equal(t, "redisproxy v9.9.9 (built 2026-01-02T03:04:05Z)", String("redisproxy"))
}
