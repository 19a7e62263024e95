package config_test

import (
	"CodeCollab/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := config.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "cpp", s.ExecLanguage)
	assert.Equal(t, 4, s.MinPasswordLength)
	assert.Equal(t, 256, s.BroadcastBuffer)
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("COMPILER_PATH", "/usr/bin/clang++")
	t.Setenv("RUN_TIMEOUT", "90s")
	t.Setenv("ROOM_MIN_PASSWORD_LENGTH", "6")

	s, err := config.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/clang++", s.CompilerPath)
	assert.Equal(t, 90*time.Second, s.RunTimeout)
	assert.Equal(t, 6, s.MinPasswordLength)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	t.Setenv("ROOM_MIN_PASSWORD_LENGTH", "0")

	_, err := config.LoadSettings()
	assert.Error(t, err)
}
