package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaults(t *testing.T) {
	var cfg RuntimeConfig
	applyRuntimeDefaults(&cfg)
	require.Equal(t, DefaultRuntimeConfig(), cfg)

	cfg = RuntimeConfig{LoaderChunkSize: 50}
	applyRuntimeDefaults(&cfg)
	require.Equal(t, 50, cfg.LoaderChunkSize)
	require.Equal(t, DefaultRuntimeConfig().SlowQueryMillis, cfg.SlowQueryMillis)
}

func TestValidateRuntimeConfig(t *testing.T) {
	require.NoError(t, validateRuntimeConfig(DefaultRuntimeConfig()))
	require.Error(t, validateRuntimeConfig(RuntimeConfig{LoaderChunkSize: 0, SlowQueryMillis: 0}))
	require.Error(t, validateRuntimeConfig(RuntimeConfig{LoaderChunkSize: 10, SlowQueryMillis: -1}))
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("ORDERDESK_TEST_FLAG", "yes")
	require.True(t, getenvBool("ORDERDESK_TEST_FLAG", false))

	t.Setenv("ORDERDESK_TEST_FLAG", "off")
	require.False(t, getenvBool("ORDERDESK_TEST_FLAG", true))

	t.Setenv("ORDERDESK_TEST_FLAG", "maybe")
	require.True(t, getenvBool("ORDERDESK_TEST_FLAG", true))
}
