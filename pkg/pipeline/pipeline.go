// Package pipeline wires the snaplink engine together for the CLI, the
// HTTP server and the TUI.
//
// # Architecture
//
// An [Env] is one editing session: a workspace, the block registry that
// fills it, the text measurer and layout renderer that size its blocks,
// the script engine for user validators and the event recorder that
// delivers changes to sinks. Every entry point builds its Env from the
// same [Options], usually derived from the config file with
// [FromConfig].
//
// A [Runner] exports an Env's workspace to DOT, SVG and PNG, caching the
// slow formats.
//
// # Usage
//
//	env, err := pipeline.NewEnv(pipeline.FromConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer env.Close(ctx)
//
//	b, err := env.Spawn("controls_if", 0, 0)
//	...
//	res, err := pipeline.NewRunner(nil, nil, logger).Export(ctx, env, pipeline.ExportOptions{
//	    Formats: []string{pipeline.FormatSVG},
//	})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/config"
	"github.com/matzehuels/snaplink/pkg/events"
)

// Format constants for export formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// DefaultScale is the PNG scale used when ExportOptions.Scale is zero.
const DefaultScale = 2.0

// Options configure an Env. Zero values take the engine defaults.
type Options struct {
	// Workspace options
	SnapRadius           float64
	ConnectingSnapRadius float64
	RTL                  bool

	// Layout options
	FontSize  float64
	Padding   float64
	RowHeight float64

	// ScriptTimeout bounds each user validator call.
	ScriptTimeout time.Duration

	// Definitions are extra block definition files loaded after the
	// built-in library.
	Definitions []string

	// Sinks receive flushed events.
	Sinks []events.Sink

	// NewID overrides block id generation, for reproducible output.
	NewID func() string

	Logger *log.Logger
}

// FromConfig maps a loaded config onto Options. Sinks are not opened here.
func FromConfig(cfg *config.Config) Options {
	return Options{
		SnapRadius:           cfg.Workspace.SnapRadius,
		ConnectingSnapRadius: cfg.Workspace.ConnectingSnapRadius,
		RTL:                  cfg.Workspace.RTL,
		FontSize:             cfg.Render.FontSize,
		Padding:              cfg.Render.Padding,
		RowHeight:            cfg.Render.RowHeight,
		ScriptTimeout:        cfg.Script.Timeout,
		Definitions:          cfg.Blocks.Definitions,
	}
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ExportOptions select what Runner.Export produces.
type ExportOptions struct {
	Formats []string

	// Detailed adds field values and positions to DOT and SVG labels.
	Detailed bool

	// Scale multiplies workspace units into PNG pixels.
	Scale float64

	// TTL is how long cached artifacts live. Zero keeps them.
	TTL time.Duration

	// Refresh skips cache reads but still stores the fresh result.
	Refresh bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the formats and applies defaults. It is
// idempotent.
func (o *ExportOptions) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	return ValidateFormats(o.Formats)
}
