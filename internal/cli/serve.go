package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/snaplink/pkg/pipeline"
	"github.com/matzehuels/snaplink/pkg/server"
)

// serveCommand creates the serve command exposing a session over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr          string
		statsInterval time.Duration
		cache         cacheOpts
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an editing session over HTTP",
		Long: `Serve one workspace over HTTP. Clients spawn blocks, probe and perform
drags, edit fields and export snapshots; see the server package for the
routes. The session lives until the process exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			env, err := c.newEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.closeEnv(context.WithoutCancel(cmd.Context()), env)

			runner, err := c.newRunner(cache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			return c.serve(cmd.Context(), env, runner, addr, statsInterval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&statsInterval, "stats-interval", 0, "log engine counters at this interval (0 disables)")
	cache.register(cmd)

	return cmd
}

func (c *CLI) serve(ctx context.Context, env *pipeline.Env, runner *pipeline.Runner, addr string, statsInterval time.Duration) error {
	srv := server.New(env, server.Options{Runner: runner, Logger: c.Logger})
	printInfo("Serving on %s", StyleLink.Render("http://"+addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})
	if statsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					c.Logger.Info("counters", "snapshot", env.Counters.Snapshot())
				}
			}
		})
	}
	return g.Wait()
}
