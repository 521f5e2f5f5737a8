package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	opts := Defaults()
	assert.True(t, opts.Parallel)
	assert.Equal(t, 10.0, opts.TimeoutSeconds)
	assert.Equal(t, 200, opts.DefaultSampleSize)
	assert.Equal(t, ConditioningSHA256, opts.Conditioning)
	assert.Equal(t, 16*1024*1024, opts.BufferCapBytes)
	require.NoError(t, opts.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Conditioning, opts.Conditioning)
}

func TestLoadOverridesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
parallel = false
timeout_seconds = 2.5
default_sample_size = 64
conditioning = "vonneumann"
buffer_cap_bytes = 1048576
seed_hex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.False(t, opts.Parallel)
	assert.Equal(t, 2.5, opts.TimeoutSeconds)
	assert.Equal(t, 64, opts.DefaultSampleSize)
	assert.Equal(t, ConditioningVonNeumann, opts.Conditioning)
	assert.Equal(t, 1048576, opts.BufferCapBytes)
	assert.Len(t, opts.Seed, 32)
	require.NoError(t, opts.Validate())
}

func TestValidateRejectsBadConditioning(t *testing.T) {
	opts := Defaults()
	opts.Conditioning = "bogus"
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	opts := Defaults()
	opts.TimeoutSeconds = 0
	assert.Error(t, opts.Validate())
}

func TestFindConfigFilePrefersCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(""), 0600))
	assert.Equal(t, filepath.Join(".", "config.toml"), FindConfigFile())
}
