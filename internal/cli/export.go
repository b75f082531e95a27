package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/snaplink/pkg/pipeline"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output   string   // output file (single format) or base path (several)
	formats  []string // dot, svg, png
	detailed bool     // add field values and positions to diagram labels
	scale    float64  // PNG pixels per workspace unit
	refresh  bool     // skip cache reads
	cache    cacheOpts
}

// exportCommand creates the export command for snapshots of a replayed workspace.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "export [scenario.toml...]",
		Short: "Replay scenarios and export the workspace as DOT, SVG or PNG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runExport(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show field values and positions in diagram labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixels per workspace unit")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if a cached artifact exists")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runExport(ctx context.Context, paths []string, opts exportOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	env, err := c.newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.closeEnv(ctx, env)

	failed, err := c.replay(ctx, env, paths, false)
	if err != nil {
		return err
	}
	if failed > 0 {
		printWarning("%d step(s) failed, exporting the workspace as it is", failed)
	}

	runner, err := c.newRunner(opts.cache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	res, err := runner.Export(ctx, env, pipeline.ExportOptions{
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Scale:    opts.scale,
		Refresh:  opts.refresh,
	})
	if err != nil {
		return err
	}

	base := basePath(opts.output, paths[len(paths)-1])
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	cached := len(opts.formats) > 0
	for _, f := range opts.formats {
		cached = cached && res.CacheInfo.Hits[f]
	}
	printStats(res.Stats.Blocks, res.Stats.TopBlocks, res.Stats.Links)
	printCacheStatus(cached)
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
