package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/config"
	"github.com/matzehuels/snaplink/pkg/events"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestExportOptionsDefaults(t *testing.T) {
	var opts ExportOptions
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("default formats = %v", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("default scale = %v", opts.Scale)
	}

	bad := ExportOptions{Formats: []string{"dot", "gif"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("gif should be rejected")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workspace.RTL = true
	cfg.Blocks.Definitions = []string{"a.toml"}
	opts := FromConfig(cfg)
	if opts.SnapRadius != cfg.Workspace.SnapRadius || !opts.RTL {
		t.Errorf("workspace options = %+v", opts)
	}
	if opts.FontSize != cfg.Render.FontSize || opts.ScriptTimeout != cfg.Script.Timeout {
		t.Errorf("render/script options = %+v", opts)
	}
	if len(opts.Definitions) != 1 {
		t.Errorf("definitions = %v", opts.Definitions)
	}
}

func newEnv(t *testing.T, opts Options) *Env {
	t.Helper()
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
	opts.Logger = log.New(io.Discard)
	env, err := NewEnv(opts)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	t.Cleanup(func() { _ = env.Close(context.Background()) })
	return env
}

func TestSpawnRendersWithShadows(t *testing.T) {
	env := newEnv(t, Options{})
	b, err := env.Spawn("math_arithmetic", 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Rendered() || b.Size().Width <= 0 {
		t.Fatalf("block not rendered: %v", b.Size())
	}
	shadow := b.Input("A").Connection().TargetBlock()
	if shadow == nil || !shadow.Rendered() {
		t.Fatal("shadow should be rendered with its parent")
	}
	if env.Measurer.Active() {
		t.Error("measurement scope left open")
	}
	if env.Counters.Get("memo.hit.width")+env.Counters.Get("memo.miss.width") == 0 {
		t.Error("render should go through the scoped memo")
	}
	if err := env.Workspace.CheckIndex(); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Spawn("no_such_block", 0, 0); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestNewEnvLoadsDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.toml")
	def := "[[block]]\ntype = \"extra_stop\"\nprevious = {}\n"
	if err := os.WriteFile(path, []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t, Options{Definitions: []string{path}})
	if _, ok := env.Registry.Lookup("extra_stop"); !ok {
		t.Error("extra definition not loaded")
	}

	if _, err := NewEnv(Options{Definitions: []string{filepath.Join(t.TempDir(), "missing.toml")}, Logger: log.New(io.Discard)}); err == nil {
		t.Error("missing definitions file should fail")
	}
}

func TestFlushDeliversToSinks(t *testing.T) {
	mem := events.NewMemory()
	env := newEnv(t, Options{Sinks: []events.Sink{mem}})
	if _, err := env.Spawn("text", 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := env.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(mem.Events()) == 0 {
		t.Error("spawn should record events")
	}
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	entries map[string][]byte
	sets    int
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	d, ok := c.entries[key]
	return d, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestExportDOTAndPNG(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t, Options{})
	if _, err := env.Spawn("controls_repeat_ext", 0, 0); err != nil {
		t.Fatal(err)
	}

	mc := &mapCache{entries: map[string][]byte{}}
	r := NewRunner(mc, nil, log.New(io.Discard))
	opts := ExportOptions{Formats: []string{FormatDOT, FormatPNG}, Scale: 1}

	res, err := r.Export(ctx, env, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"b1" -> "b2" [label="TIMES"]`) {
		t.Errorf("dot missing shadow edge:\n%s", res.Artifacts[FormatDOT])
	}
	if _, err := png.Decode(bytes.NewReader(res.Artifacts[FormatPNG])); err != nil {
		t.Errorf("png does not decode: %v", err)
	}
	if res.Stats.Blocks != 2 || res.Stats.TopBlocks != 1 || res.Stats.Links != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.CacheInfo.Hits[FormatPNG] {
		t.Error("first export should miss")
	}

	res, err = r.Export(ctx, env, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.Hits[FormatPNG] {
		t.Error("second export should hit")
	}
	if mc.sets != 1 {
		t.Errorf("cache sets = %d, want 1", mc.sets)
	}

	if err := env.Workspace.TopBlocks()[0].MoveBy(5, 0); err != nil {
		t.Fatal(err)
	}
	res, err = r.Export(ctx, env, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.Hits[FormatPNG] {
		t.Error("moving a block should change the png key")
	}

	opts.Refresh = true
	res, err = r.Export(ctx, env, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.Hits[FormatPNG] {
		t.Error("refresh should skip the cache")
	}
}
