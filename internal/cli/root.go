// Package cli provides the command-line interface for dextint.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/dextint/internal/colour"
	"github.com/jmylchreest/dextint/internal/config"
	"github.com/jmylchreest/dextint/internal/extract"
	imageutil "github.com/jmylchreest/dextint/internal/image"
	"github.com/jmylchreest/dextint/internal/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	verbose    bool
	quiet      bool
	configPath string
}

// NewRootCmd builds the dextint command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dextint",
		Short: "Dominant colour theming for catalog artwork",
		Long: `dextint extracts the dominant colour of catalog artwork and propagates it to
the views themed by it.

Images are downscaled into a small sample buffer, transparent and near-black
or near-white pixels are ignored, and the most frequent remaining colour wins.
When no colour can be found the fallback colour is used instead.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(opts))
	rootCmd.AddCommand(newThemeCmd(opts))

	return rootCmd
}

// logger returns the command logger writing to w.
func (o *globalOptions) logger(w io.Writer) hclog.Logger {
	level := hclog.Info
	switch {
	case o.verbose:
		level = hclog.Debug
	case o.quiet:
		level = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "dextint",
		Output: w,
		Level:  level,
	})
}

// resolveConfig layers the config file, the environment and the flags the
// user set on cmd, then validates the result.
func (o *globalOptions) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newService wires a sampler and extractor from cfg. fetch overrides how
// remote images are retrieved when non-nil.
func newService(cfg *config.Config, logger hclog.Logger, fetch imageutil.FetchFunc) (*extract.Service, error) {
	samplerOpts := cfg.SamplerOptions()
	samplerOpts.Fetch = fetch
	sampler, err := imageutil.NewURLSampler(samplerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	extractor, err := colour.NewExtractor(cfg.ExtractorConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	fallback, err := cfg.Fallback()
	if err != nil {
		return nil, fmt.Errorf("invalid fallback colour: %w", err)
	}

	return extract.NewService(sampler, extractor,
		extract.WithFallback(fallback),
		extract.WithLogger(logger.Named("extract")),
	)
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetInfo())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
