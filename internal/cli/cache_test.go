package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/snaplink/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join("/tmp/xdg-cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ab/cdef.json", "ab/0123.json", "ff/9999.json"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("cleared %d, want 3", count)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left", len(entries))
	}

	if count, err := clearDir(filepath.Join(dir, "missing")); err != nil || count != 0 {
		t.Errorf("clearDir(missing) = %d, %v", count, err)
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	tests := []struct {
		name string
		opts cacheOpts
		want string
	}{
		{"disabled", cacheOpts{noCache: true}, "cache.NullCache"},
		{"redis", cacheOpts{redisAddr: "127.0.0.1:1"}, "*cache.RedisCache"},
		{"file", cacheOpts{}, "*cache.FileCache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCache(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			var got string
			switch c.(type) {
			case cache.NullCache:
				got = "cache.NullCache"
			case *cache.RedisCache:
				got = "*cache.RedisCache"
			case *cache.FileCache:
				got = "*cache.FileCache"
			}
			if got != tt.want {
				t.Errorf("newCache = %T, want %s", c, tt.want)
			}
		})
	}
}
