package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/snaplink/pkg/pipeline"
	"github.com/matzehuels/snaplink/pkg/scenario"
)

// simulateCommand creates the simulate command for replaying scenario files.
func (c *CLI) simulateCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "simulate [scenario.toml...]",
		Short: "Replay scripted drags and edits against a fresh workspace",
		Long: `Replay one or more scenario files in order against one workspace.

Blocks named in earlier files stay addressable in later ones. Every step is
checked against its expectations; the command fails if any step does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			env, err := c.newEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.closeEnv(cmd.Context(), env)

			failed, err := c.replay(cmd.Context(), env, args, !quiet)
			if err != nil {
				return err
			}
			printSummary(env)
			if failed > 0 {
				return fmt.Errorf("%d step(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print failing steps")

	return cmd
}

// replay runs each scenario file through one runner and returns the number
// of failed steps. A programming error stops the replay.
func (c *CLI) replay(ctx context.Context, env *pipeline.Env, paths []string, verbose bool) (int, error) {
	prog := newProgress(c.Logger)
	runner := scenario.NewRunner(env)
	failed := 0

	for _, path := range paths {
		sc, err := scenario.ParseFile(path)
		if err != nil {
			return failed, fmt.Errorf("%s: %w", path, err)
		}
		name := sc.Name
		if name == "" {
			name = path
		}
		rep, err := runner.Run(ctx, sc)
		printReport(name, rep, verbose)
		failed += len(rep.Failed())
		if err != nil {
			return failed, fmt.Errorf("%s: %w", path, err)
		}
	}
	prog.done(fmt.Sprintf("Ran %d scenario(s)", len(paths)))
	return failed, nil
}

func (c *CLI) closeEnv(ctx context.Context, env *pipeline.Env) {
	if err := env.Close(ctx); err != nil {
		c.Logger.Warn("close session", "err", err)
	}
}

func printReport(name string, rep *scenario.Report, verbose bool) {
	failed := rep.Failed()
	if len(failed) == 0 {
		printSuccess("%s: %d step(s) passed", StyleHighlight.Render(name), len(rep.Steps))
	} else {
		printError("%s: %d of %d step(s) failed", StyleHighlight.Render(name), len(failed), len(rep.Steps))
	}
	for _, s := range rep.Steps {
		switch {
		case !s.Passed():
			printDetail("%d. %s %s: %s", s.Index, s.Do, s.Block, s.Failure)
		case verbose:
			printDetail("%d. %s %s: %s", s.Index, s.Do, s.Block, s.Detail)
		}
	}
}

// printSummary prints the final workspace shape and engine counters.
func printSummary(env *pipeline.Env) {
	ws := env.Workspace
	blocks, top := len(ws.Blocks()), len(ws.TopBlocks())
	printStats(blocks, top, blocks-top)

	counters := env.Counters
	for _, name := range counters.Names() {
		printKeyValue(name, fmt.Sprint(counters.Get(name)))
	}
}
