package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/cache"
	"github.com/matzehuels/snaplink/pkg/render"
	"github.com/matzehuels/snaplink/pkg/render/nodelink"
)

// Runner exports workspaces with caching. It holds no per-run state, so
// one Runner can serve several Envs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Result contains the outputs of an export.
type Result struct {
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats describe the exported workspace.
type Stats struct {
	Blocks     int
	TopBlocks  int
	Links      int
	RenderTime time.Duration
}

// CacheInfo records which formats came from the cache.
type CacheInfo struct {
	Hits map[string]bool
}

// Export renders env's workspace in every requested format.
func (r *Runner) Export(ctx context.Context, env *Env, opts ExportOptions) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	ws := env.Workspace
	start := time.Now()

	res := &Result{
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		CacheInfo: CacheInfo{Hits: make(map[string]bool)},
	}
	res.Stats.Blocks = len(ws.Blocks())
	res.Stats.TopBlocks = len(ws.TopBlocks())
	res.Stats.Links = res.Stats.Blocks - res.Stats.TopBlocks

	dot := nodelink.ToDOT(ws, nodelink.Options{Detailed: opts.Detailed})
	for _, format := range opts.Formats {
		var (
			data []byte
			hit  bool
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, hit, err = r.cached(ctx, cache.Hash([]byte(dot)), format, opts, func() ([]byte, error) {
				return nodelink.RenderSVG(ctx, dot)
			})
		case FormatPNG:
			data, hit, err = r.cached(ctx, cache.Hash([]byte(geometry(ws))), format, opts, func() ([]byte, error) {
				return render.PNG(ws, render.Options{Face: env.Measurer.Face(), Scale: opts.Scale})
			})
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		res.Artifacts[format] = data
		res.CacheInfo.Hits[format] = hit
	}
	res.Stats.RenderTime = time.Since(start)

	r.Logger.Debug("exported workspace",
		"formats", opts.Formats,
		"blocks", res.Stats.Blocks,
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) cached(ctx context.Context, source, format string, opts ExportOptions, produce func() ([]byte, error)) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(source, cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: opts.Detailed,
		Scale:    opts.Scale,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		} else if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "err", err)
		}
	}
	data, err := produce()
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
		r.Logger.Warn("cache write failed", "format", format, "err", err)
	}
	return data, false, nil
}

// geometry fingerprints everything a PNG shows: per block its type, flags,
// position, size and field text.
func geometry(ws *blocks.Workspace) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rtl=%t\n", ws.RTL())
	for _, b := range ws.Blocks() {
		fmt.Fprintf(&sb, "%s %s %s %gx%g shadow=%t disabled=%t collapsed=%t",
			b.ID(), b.Type(), b.XY(), b.Size().Width, b.Size().Height,
			b.Shadow(), b.EffectiveDisabled(), b.Collapsed())
		for _, f := range b.Fields() {
			fmt.Fprintf(&sb, " %q", f.Text())
		}
		for _, c := range b.Connections(false) {
			fmt.Fprintf(&sb, " %s%t%t", c.Position(), c.IsConnected(), c.Hidden())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
