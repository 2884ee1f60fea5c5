package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.NumDisks)
	require.Equal(t, "/var/lib/stripedfs", cfg.UploadPath)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	os.Setenv("STRIPEDFS_NUM_DISKS", "5")
	os.Setenv("STRIPEDFS_TEST_MODE", "true")
	defer os.Unsetenv("STRIPEDFS_NUM_DISKS")
	defer os.Unsetenv("STRIPEDFS_TEST_MODE")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 5, cfg.NumDisks)
	require.True(t, cfg.TestMode)
	require.Equal(t, "/tmp", cfg.Root())
}

func TestValidateRejectsNarrowStripe(t *testing.T) {
	cfg := defaults()
	cfg.NumDisks = 2
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingUploadPath(t *testing.T) {
	cfg := defaults()
	cfg.UploadPath = ""
	require.Error(t, cfg.Validate())
}
