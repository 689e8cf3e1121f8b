package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupGlobalLogger(&Config{Level: "warn"}, &buf)
	defer SetupGlobalLogger(nil)

	Info(Engine, "should be suppressed")
	assert.Empty(t, buf.String())

	Warn(Engine, "should appear")
	assert.True(t, strings.Contains(buf.String(), "should appear"))
	assert.True(t, strings.Contains(buf.String(), "ENGINE"))
}

func TestSubLoggerOverride(t *testing.T) {
	var buf bytes.Buffer
	SetupGlobalLogger(&Config{Level: "warn", SubLoggers: map[string]string{"PHASE3": "debug"}}, &buf)
	defer SetupGlobalLogger(nil)

	Debug(Phase3, "narrow window")
	assert.True(t, strings.Contains(buf.String(), "narrow window"))

	Debug(Engine, "hidden")
	assert.False(t, strings.Contains(buf.String(), "hidden"))
}
