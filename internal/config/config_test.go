package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	fallback, err := cfg.Fallback()
	require.NoError(t, err)
	assert.Equal(t, "#b20072", fallback.String())
	assert.Equal(t, 100*time.Millisecond, cfg.PropagationDelay)
	assert.Equal(t, 50, cfg.SampleSize)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dextint.yaml")
	content := `fallback_colour: "rgb(60,90,166)"
sample_size: 32
algorithm: prominent
propagation_delay: 250ms
debounce: true
http_timeout: 3s
filter:
  stride: 2
  min_alpha: 200
  min_brightness: 10
  max_brightness: 240
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rgb(60,90,166)", cfg.FallbackColour)
	assert.Equal(t, 32, cfg.SampleSize)
	assert.Equal(t, "prominent", cfg.Algorithm)
	assert.Equal(t, 250*time.Millisecond, cfg.PropagationDelay)
	assert.True(t, cfg.Debounce)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.Filter.Stride)
	assert.Equal(t, uint8(200), cfg.Filter.MinAlpha)

	// Unset keys keep their defaults.
	assert.Equal(t, "approx-bilinear", cfg.Interpolator)
	assert.True(t, cfg.AllowFiles)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_size: [1, 2"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad colour", func(c *Config) { c.FallbackColour = "magenta" }, "fallback_colour"},
		{"empty colour", func(c *Config) { c.FallbackColour = "" }, "fallback_colour"},
		{"zero size", func(c *Config) { c.SampleSize = 0 }, "sample_size"},
		{"unknown interpolator", func(c *Config) { c.Interpolator = "lanczos" }, "interpolator"},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "median-cut" }, "algorithm"},
		{"negative delay", func(c *Config) { c.PropagationDelay = -time.Second }, "propagation_delay"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "http_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected a FieldError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.SampleSize = 0
	cfg.Algorithm = "nope"
	cfg.Filter.Stride = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_size")
	assert.Contains(t, err.Error(), "algorithm")
	assert.Contains(t, err.Error(), "stride")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvFallbackColour:   "#000080",
		EnvSampleSize:       "64",
		EnvPropagationDelay: "0s",
		EnvHTTPTimeout:      "2s",
		EnvAlgorithm:        "KMeans",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "#000080", cfg.FallbackColour)
	assert.Equal(t, 64, cfg.SampleSize)
	assert.Equal(t, time.Duration(0), cfg.PropagationDelay)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "kmeans", cfg.Algorithm)
}

func TestApplyEnvFromProcess(t *testing.T) {
	t.Setenv(EnvSampleSize, "20")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 20, cfg.SampleSize)
}

func TestApplyEnvInvalidValues(t *testing.T) {
	env := map[string]string{
		EnvSampleSize:  "big",
		EnvHTTPTimeout: "soon",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSampleSize)
	assert.Contains(t, err.Error(), EnvHTTPTimeout)
	assert.Equal(t, 50, cfg.SampleSize)
}

func TestBindFlagsOverride(t *testing.T) {
	cfg := Default()
	cfg.SampleSize = 64

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	cfg.BindThemeFlags(fs)

	require.NoError(t, fs.Parse([]string{"--algorithm", "prominent", "--delay", "1s", "--block-private"}))

	assert.Equal(t, "prominent", cfg.Algorithm)
	assert.Equal(t, time.Second, cfg.PropagationDelay)
	assert.True(t, cfg.BlockPrivateHosts)
	// Unparsed flags keep the value present at bind time.
	assert.Equal(t, 64, cfg.SampleSize)
}

func TestSamplerOptions(t *testing.T) {
	cfg := Default()
	cfg.BlockPrivateHosts = true

	opts := cfg.SamplerOptions()
	assert.Equal(t, cfg.SampleSize, opts.Size)
	assert.Equal(t, cfg.HTTPTimeout, opts.Timeout)
	require.NotNil(t, opts.Policy)
	assert.True(t, opts.Policy.BlockPrivateHosts)
	assert.True(t, opts.Policy.AllowFiles)

	ec := cfg.ExtractorConfig()
	require.NoError(t, ec.Validate())
}

func TestApplyFlagsReplaysChangedOnly(t *testing.T) {
	bound := Default()
	fs := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	bound.BindFlags(fs)
	fs.Bool("preview", false, "unrelated flag")
	require.NoError(t, fs.Parse([]string{"--size", "16", "--timeout", "4s", "--preview"}))

	// Resolved config loaded from file and environment.
	cfg := Default()
	cfg.Algorithm = "prominent"
	cfg.SampleSize = 64

	require.NoError(t, cfg.ApplyFlags(fs))
	assert.Equal(t, 16, cfg.SampleSize)
	assert.Equal(t, 4*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "prominent", cfg.Algorithm, "unchanged flags must not reset file values")
}
