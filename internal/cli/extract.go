package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/dextint/internal/config"
	"github.com/jmylchreest/dextint/internal/extract"
	imageutil "github.com/jmylchreest/dextint/internal/image"
)

// extractOptions holds the extract command flags that are not part of Config.
type extractOptions struct {
	format  string
	output  string
	preview bool
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <source>...",
		Short: "Extract the dominant colour of one or more images",
		Long: `Extract the dominant colour of one or more images.

A source is an http(s) URL, a data: URL, a file or a directory. Directories
are expanded to the images they contain. A source that cannot be loaded, or
that has no usable pixels, reports the fallback colour.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, AVIF

Examples:
  # Dominant colour of an artwork URL
  dextint extract https://img.example/official-artwork/25.png

  # Every image in a directory, as JSON
  dextint extract --format json ./artwork

  # Use k-means clustering with a larger sample buffer and a preview
  dextint extract --algorithm prominent --size 100 --preview sprite.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, global, opts, args)
		},
	}

	config.Default().BindFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour swatches in terminal")

	return cmd
}

func runExtract(cmd *cobra.Command, global *globalOptions, opts *extractOptions, args []string) error {
	switch opts.format {
	case "hex", "rgb", "json":
	default:
		return fmt.Errorf("invalid format: %s (valid: hex, rgb, json)", opts.format)
	}

	cfg, err := global.resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := global.logger(cmd.ErrOrStderr())

	sources, err := imageutil.ExpandSources(args)
	if err != nil {
		return err
	}
	logger.Debug("extracting", "sources", len(sources), "algorithm", cfg.Algorithm, "size", cfg.SampleSize)

	svc, err := newService(cfg, logger, nil)
	if err != nil {
		return err
	}
	results := svc.ExtractAll(cmd.Context(), sources)

	preview := opts.preview && opts.output == "" && isTerminal(cmd.OutOrStdout())
	output, err := formatResults(results, opts.format, preview)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Debug("wrote results", "path", opts.output)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// formatResults renders results. A single result in hex or rgb form prints
// just the colour so the output can be used in scripts.
func formatResults(results []extract.Result, format string, preview bool) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	}

	value := func(r extract.Result) string {
		if format == "hex" {
			return r.Colour.Hex()
		}
		return r.Colour.RGB().String()
	}

	if len(results) == 1 {
		line := value(results[0])
		if preview {
			line = swatch(results[0].Colour) + " " + line
		}
		return line + "\n", nil
	}

	headers := []string{"SOURCE", "COLOUR", "FALLBACK"}
	if preview {
		headers = append(headers, "PREVIEW")
	}
	table := NewTable(headers...)
	for _, r := range results {
		fallback := ""
		if r.Fallback {
			fallback = string(r.Reason)
		}
		row := []string{r.Source, value(r), fallback}
		if preview {
			row = append(row, swatch(r.Colour))
		}
		table.AddRow(row...)
	}
	return table.Render(), nil
}
