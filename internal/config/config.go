// Package config loads dextint settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/dextint/internal/colour"
	imageutil "github.com/jmylchreest/dextint/internal/image"
	"github.com/jmylchreest/dextint/internal/security"
	httputil "github.com/jmylchreest/dextint/internal/util/http"
)

// Environment variables read by ApplyEnv.
const (
	EnvFallbackColour   = "DEXTINT_FALLBACK_COLOUR"
	EnvSampleSize       = "DEXTINT_SAMPLE_SIZE"
	EnvPropagationDelay = "DEXTINT_PROPAGATION_DELAY"
	EnvHTTPTimeout      = "DEXTINT_HTTP_TIMEOUT"
	EnvAlgorithm        = "DEXTINT_ALGORITHM"
)

// Config holds every tunable of the extraction and theming pipeline.
type Config struct {
	FallbackColour   string              `yaml:"fallback_colour" validate:"required,colour"`
	SampleSize       int                 `yaml:"sample_size" validate:"min=1,max=1024"`
	Interpolator     string              `yaml:"interpolator" validate:"interp"`
	Algorithm        string              `yaml:"algorithm" validate:"oneof=histogram prominent kmeans"`
	Filter           colour.FilterConfig `yaml:"filter"`
	PropagationDelay time.Duration       `yaml:"propagation_delay" validate:"min=0"`
	Debounce         bool                `yaml:"debounce"`
	HTTPTimeout      time.Duration       `yaml:"http_timeout" validate:"gt=0"`

	BlockPrivateHosts bool `yaml:"block_private_hosts"`
	AllowFiles        bool `yaml:"allow_files"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FallbackColour:   "#b20072",
		SampleSize:       imageutil.DefaultSampleSize,
		Interpolator:     "approx-bilinear",
		Algorithm:        string(colour.AlgorithmHistogram),
		Filter:           colour.DefaultFilterConfig(),
		PropagationDelay: 100 * time.Millisecond,
		HTTPTimeout:      httputil.DefaultTimeout,
		AllowFiles:       true,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// The result is not validated; call Validate once every layer is applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - user-specified config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DEXTINT_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	if v, ok := lookup(EnvFallbackColour); ok && v != "" {
		c.FallbackColour = v
	}
	if v, ok := lookup(EnvAlgorithm); ok && v != "" {
		c.Algorithm = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSampleSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSampleSize, err))
		} else {
			c.SampleSize = n
		}
	}
	if v, ok := lookup(EnvPropagationDelay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPropagationDelay, err))
		} else {
			c.PropagationDelay = d
		}
	}
	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvHTTPTimeout, err))
		} else {
			c.HTTPTimeout = d
		}
	}
	return errors.Join(errs...)
}

// BindFlags registers flags that write straight into c. Flags parsed after
// Load and ApplyEnv take precedence over both.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.FallbackColour, "fallback", c.FallbackColour, "Colour used when no colour can be extracted")
	fs.IntVar(&c.SampleSize, "size", c.SampleSize, "Edge length of the sample buffer in pixels")
	fs.StringVar(&c.Interpolator, "interpolator", c.Interpolator, "Resampling kernel (nearest, approx-bilinear, bilinear, catmull-rom)")
	fs.StringVarP(&c.Algorithm, "algorithm", "a", c.Algorithm, "Extraction algorithm (histogram, prominent, kmeans)")
	fs.DurationVar(&c.HTTPTimeout, "timeout", c.HTTPTimeout, "Timeout for remote image fetches")
	fs.BoolVar(&c.BlockPrivateHosts, "block-private", c.BlockPrivateHosts, "Reject URLs pointing at private or loopback hosts")
}

// BindThemeFlags registers the flags only the theme command uses.
func (c *Config) BindThemeFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&c.PropagationDelay, "delay", c.PropagationDelay, "Wait between extraction and publishing the colour")
	fs.BoolVar(&c.Debounce, "debounce", c.Debounce, "Collapse rapid propagations into the last one")
}

// ApplyFlags replays the flags set on src over c. Only flags registered by
// BindFlags or BindThemeFlags are considered; src itself may be bound to a
// different Config.
func (c *Config) ApplyFlags(src *pflag.FlagSet) error {
	dst := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.BindFlags(dst)
	c.BindThemeFlags(dst)

	var errs []error
	src.Visit(func(f *pflag.Flag) {
		if dst.Lookup(f.Name) == nil {
			return
		}
		if err := dst.Set(f.Name, f.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Validate checks every field and returns all failures joined.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	var errs []error
	if err := validatorInstance().Struct(c); err != nil {
		errs = append(errs, convertValidationError(err))
	}
	if err := c.Filter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}
	return errors.Join(errs...)
}

// Fallback returns the parsed fallback colour.
func (c *Config) Fallback() (colour.Colour, error) {
	return colour.ParseColour(c.FallbackColour)
}

// ExtractorConfig returns the extractor settings.
func (c *Config) ExtractorConfig() colour.ExtractorConfig {
	return colour.ExtractorConfig{Algorithm: colour.Algorithm(c.Algorithm), Filter: c.Filter}
}

// SamplerOptions returns the sampler settings.
func (c *Config) SamplerOptions() imageutil.Options {
	return imageutil.Options{
		Size:         c.SampleSize,
		Interpolator: c.Interpolator,
		Timeout:      c.HTTPTimeout,
		Policy: &security.SourcePolicy{
			BlockPrivateHosts: c.BlockPrivateHosts,
			AllowFiles:        c.AllowFiles,
		},
	}
}

// FieldError describes one invalid field.
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value any
}

func (e *FieldError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s failed validation for tag '%s=%s' (value: %v)", e.Field, e.Tag, e.Param, e.Value)
	}
	return fmt.Sprintf("%s failed validation for tag '%s' (value: %v)", e.Field, e.Tag, e.Value)
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("colour", func(fl validator.FieldLevel) bool {
			_, err := colour.ParseColour(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("interp", func(fl validator.FieldLevel) bool {
			_, err := imageutil.LookupInterpolator(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	errs := make([]error, 0, len(ves))
	for _, fe := range ves {
		errs = append(errs, &FieldError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Tag:   fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return errors.Join(errs...)
}
