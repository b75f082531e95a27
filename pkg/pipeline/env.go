package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/blockdef"
	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/measure"
	"github.com/matzehuels/snaplink/pkg/observability"
	"github.com/matzehuels/snaplink/pkg/render/layout"
	"github.com/matzehuels/snaplink/pkg/script"
)

// Env is one editing session. It is not safe for concurrent use; callers
// that share an Env across goroutines serialize access themselves.
type Env struct {
	Workspace *blocks.Workspace
	Registry  *blockdef.Registry
	Measurer  *measure.Measurer
	Renderer  *layout.Renderer
	Engine    *script.Engine
	Recorder  *events.Recorder

	// Counters observe the workspace and the measurer.
	Counters *observability.Counters

	Logger *log.Logger
}

// NewEnv builds a session. The built-in block library is always loaded;
// opts.Definitions are loaded on top of it in order.
func NewEnv(opts Options) (*Env, error) {
	opts.setDefaults()
	counters := observability.NewCounters()

	m, err := measure.New(measure.Options{FontSize: opts.FontSize, Hooks: counters})
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	renderer := layout.New(m, layout.Options{
		Padding:   opts.Padding,
		RowHeight: opts.RowHeight,
		RTL:       opts.RTL,
	})

	engine := script.New(script.Options{Timeout: opts.ScriptTimeout, Logger: opts.Logger})
	reg, err := blockdef.Builtin(engine)
	if err != nil {
		return nil, fmt.Errorf("builtin blocks: %w", err)
	}
	for _, path := range opts.Definitions {
		if err := reg.LoadFile(path); err != nil {
			return nil, err
		}
		opts.Logger.Debug("loaded block definitions", "path", path)
	}

	rec := events.NewRecorder(opts.Sinks...)
	ws := blocks.NewWorkspace(blocks.Options{
		SnapRadius:           opts.SnapRadius,
		ConnectingSnapRadius: opts.ConnectingSnapRadius,
		RTL:                  opts.RTL,
		Renderer:             renderer,
		Shadows:              reg,
		Events:               rec,
		Hooks:                counters,
		Logger:               opts.Logger,
		NewID:                opts.NewID,
	})

	return &Env{
		Workspace: ws,
		Registry:  reg,
		Measurer:  m,
		Renderer:  renderer,
		Engine:    engine,
		Recorder:  rec,
		Counters:  counters,
		Logger:    opts.Logger,
	}, nil
}

// Spawn creates a block of type typ with its shadows, places it at (x, y)
// and renders it.
func (e *Env) Spawn(typ string, x, y float64) (*blocks.Block, error) {
	b, err := e.Registry.New(e.Workspace, typ)
	if err != nil {
		return nil, err
	}
	if err := b.Place(x, y); err != nil {
		return nil, err
	}
	if err := e.Render(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Render renders b's tree under one measurement scope.
func (e *Env) Render(b *blocks.Block) error {
	return e.Measurer.Run(func() error { return e.Workspace.Render(b) })
}

// RenderAll renders every top-level block under one measurement scope.
func (e *Env) RenderAll() error {
	return e.Measurer.Run(e.Workspace.RenderAll)
}

// Flush delivers recorded events to the sinks.
func (e *Env) Flush(ctx context.Context) error {
	return e.Recorder.Flush(ctx)
}

// Close flushes pending events and closes every sink.
func (e *Env) Close(ctx context.Context) error {
	if err := e.Recorder.Close(ctx); err != nil {
		e.Logger.Warn("closing event sinks", "err", err)
		return err
	}
	return nil
}
