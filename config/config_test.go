package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.EqualValues(t, 500, s.MinRequestIntervalMS)
	assert.EqualValues(t, 10, s.Phase1SampleCount)
	assert.EqualValues(t, 4, s.Phase4ProbeCount)
	assert.Equal(t, "", s.ExternalTimeSource)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_request_interval_ms: 750\nexternal_time_source: pool.ntp.org\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 750, s.MinRequestIntervalMS)
	assert.Equal(t, "pool.ntp.org", s.ExternalTimeSource)
	assert.EqualValues(t, 10, s.Phase1SampleCount)
}

func TestEngineParamsRoundsOddProbeCountUp(t *testing.T) {
	s := Settings{Phase4ProbeCount: 3, MinRequestIntervalMS: 500, PerProbeDeadlineMS: 5000}
	p := s.EngineParams()
	assert.Equal(t, 4, p.Phase4ProbeCount)
}
