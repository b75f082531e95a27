package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/pipeline"
	"github.com/matzehuels/snaplink/pkg/render/nodelink"
	"github.com/matzehuels/snaplink/pkg/scenario"
)

// defaultNudge is how far one arrow key moves a dragged block.
const defaultNudge = 8

// demoScenario seeds the TUI when no scenario file is given.
const demoScenario = `
name = "demo"

[[block]]
name = "loop"
type = "controls_repeat_ext"

[[block]]
name = "say"
type = "text_print"
x = 400.0
y = 300.0

[[block]]
name = "sum"
type = "math_arithmetic"
x = 400.0
y = 120.0
`

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// tuiCommand creates the interactive drag source.
func (c *CLI) tuiCommand() *cobra.Command {
	var nudge float64

	cmd := &cobra.Command{
		Use:   "tui [scenario.toml...]",
		Short: "Drag blocks around in the terminal",
		Long: `Open an interactive session. The given scenarios are replayed first;
without any, a small demo workspace is placed.

Keys: up/down select, enter start or drop a drag, arrows nudge while
dragging, esc abort, c collapse, d disable, x delete, y copy the
workspace as DOT to the clipboard, q quit.`,
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

			runner, err := seedRunner(cmd.Context(), env, args)
			if err != nil {
				return err
			}
			model := NewDragModel(env, runner, nudge)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().Float64Var(&nudge, "nudge", defaultNudge, "workspace units per arrow key")

	return cmd
}

// seedRunner replays paths, or the demo scenario when there are none.
func seedRunner(ctx context.Context, env *pipeline.Env, paths []string) (*scenario.Runner, error) {
	runner := scenario.NewRunner(env)
	var scenarios []*scenario.Scenario
	if len(paths) == 0 {
		sc, err := scenario.Parse([]byte(demoScenario))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	for _, path := range paths {
		sc, err := scenario.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, sc)
	}
	for _, sc := range scenarios {
		if _, err := runner.Run(ctx, sc); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

// =============================================================================
// DragModel - Interactive drag source
// =============================================================================

// DragModel is the bubbletea model of the interactive drag source. It
// applies every key to the Env synchronously and flushes events after
// each change.
type DragModel struct {
	env    *pipeline.Env
	names  *scenario.Runner
	nudge  float64
	Cursor int

	drag    *blocks.Drag
	dx, dy  float64
	cand    blocks.Candidate
	hasCand bool

	Status string
	Err    error
}

// NewDragModel creates a model over env. names supplies aliases for
// display.
func NewDragModel(env *pipeline.Env, names *scenario.Runner, nudge float64) *DragModel {
	if nudge <= 0 {
		nudge = defaultNudge
	}
	return &DragModel{env: env, names: names, nudge: nudge}
}

// Dragging reports whether a gesture is in progress.
func (m *DragModel) Dragging() bool { return m.drag != nil }

// selectable lists the blocks a user can pick: every non-shadow block in
// creation order.
func (m *DragModel) selectable() []*blocks.Block {
	var out []*blocks.Block
	for _, b := range m.env.Workspace.Blocks() {
		if !b.Shadow() {
			out = append(out, b)
		}
	}
	return out
}

// Selected returns the block under the cursor, or nil.
func (m *DragModel) Selected() *blocks.Block {
	list := m.selectable()
	if len(list) == 0 {
		return nil
	}
	if m.Cursor >= len(list) {
		m.Cursor = len(list) - 1
	}
	return list[m.Cursor]
}

func (m *DragModel) Init() tea.Cmd {
	return nil
}

func (m *DragModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.Err = nil

	switch key.String() {
	case "q", "ctrl+c":
		if m.drag != nil {
			m.apply(m.drag.Abort)
			m.drag = nil
		}
		return m, tea.Quit
	case "esc":
		if m.drag != nil {
			m.apply(m.drag.Abort)
			m.drag = nil
			m.Status = "drag aborted"
		}
	case "enter", " ":
		if m.drag == nil {
			m.startDrag()
		} else {
			m.drop()
		}
	case "up", "k":
		if m.drag != nil {
			m.move(0, -m.nudge)
		} else if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.drag != nil {
			m.move(0, m.nudge)
		} else if m.Cursor < len(m.selectable())-1 {
			m.Cursor++
		}
	case "left", "h":
		if m.drag != nil {
			m.move(-m.nudge, 0)
		}
	case "right", "l":
		if m.drag != nil {
			m.move(m.nudge, 0)
		}
	case "c", "d", "x":
		if m.drag == nil {
			m.toggle(key.String())
		}
	case "y":
		if m.drag == nil {
			m.yank()
		}
	}
	return m, nil
}

func (m *DragModel) startDrag() {
	b := m.Selected()
	if b == nil {
		return
	}
	m.apply(func() error {
		d, err := m.env.Workspace.StartDrag(b, false)
		if err != nil {
			return err
		}
		m.drag, m.dx, m.dy, m.hasCand = d, 0, 0, false
		return nil
	})
	if m.drag != nil {
		m.Status = "dragging " + m.alias(b)
	}
}

func (m *DragModel) move(dx, dy float64) {
	m.dx += dx
	m.dy += dy
	_ = m.env.Measurer.Run(func() error {
		m.cand, m.hasCand = m.drag.Move(m.dx, m.dy)
		return nil
	})
}

func (m *DragModel) drop() {
	b := m.drag.Block()
	m.apply(func() error {
		cand, ok, err := m.drag.End(m.dx, m.dy)
		if err != nil {
			return err
		}
		if ok {
			m.Status = fmt.Sprintf("connected %s to %s", cand.Local, cand.Target)
		} else {
			m.Status = fmt.Sprintf("dropped %s at %s", m.alias(b), b.XY())
		}
		return nil
	})
	m.drag, m.hasCand = nil, false
}

func (m *DragModel) toggle(key string) {
	b := m.Selected()
	if b == nil {
		return
	}
	switch key {
	case "c":
		m.apply(func() error { return b.SetCollapsed(!b.Collapsed()) })
		m.Status = fmt.Sprintf("%s collapsed=%t", m.alias(b), b.Collapsed())
	case "d":
		m.apply(func() error { return b.SetDisabled(!b.Disabled()) })
		m.Status = fmt.Sprintf("%s disabled=%t", m.alias(b), b.Disabled())
	case "x":
		name := m.alias(b)
		m.apply(func() error { return b.Dispose(true) })
		m.Status = "deleted " + name
	}
}

// yank copies the workspace's DOT graph to the system clipboard.
func (m *DragModel) yank() {
	dot := nodelink.ToDOT(m.env.Workspace, nodelink.Options{Detailed: true})
	if err := clipboard.WriteAll(dot); err != nil {
		m.Err = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	m.Status = fmt.Sprintf("copied %d bytes of DOT", len(dot))
}

// apply runs fn under one measurement scope and flushes its events.
func (m *DragModel) apply(fn func() error) {
	if err := m.env.Measurer.Run(fn); err != nil {
		m.Err = err
		return
	}
	if err := m.env.Flush(context.Background()); err != nil {
		m.env.Logger.Warn("flush events", "err", err)
	}
}

func (m *DragModel) alias(b *blocks.Block) string {
	if m.names == nil {
		return b.ID()
	}
	return m.names.Alias(b)
}

func (m *DragModel) where(b *blocks.Block) string {
	if m.names == nil {
		if p := b.Parent(); p != nil {
			return p.ID()
		}
		return scenario.Detached
	}
	return m.names.Where(b)
}

func (m *DragModel) View() string {
	var sb strings.Builder

	sb.WriteString(StyleTitle.Render("snaplink"))
	sb.WriteString("\n")
	if m.drag != nil {
		sb.WriteString(listDimStyle.Render("arrows: move  enter: drop  esc: abort  q: quit"))
	} else {
		sb.WriteString(listDimStyle.Render("↑/↓ select  ⏎ drag  c collapse  d disable  x delete  y copy  q quit"))
	}
	sb.WriteString("\n\n")

	list := m.selectable()
	selected := m.Selected()
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		cursor := "  "
		if b == selected {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, m.alias(b), b.Type(), b.XY().String(), m.where(b), flags(b)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Block", "Type", "Position", "Attached", "Flags").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(list) && list[row] == selected {
				return listSelectedStyle
			}
			if row < len(list) && list[row].EffectiveDisabled() {
				return listDimStyle
			}
			return listNormalStyle
		})
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	switch {
	case m.Err != nil:
		sb.WriteString(styleIconError.Render(iconError) + " " + m.Err.Error())
	case m.drag != nil:
		sb.WriteString(fmt.Sprintf("%s offset (%g, %g)", m.Status, m.dx, m.dy))
		if m.hasCand {
			sb.WriteString(StyleSuccess.Render(fmt.Sprintf("  %s %s (%.1f)", iconArrow, m.cand.Target, m.cand.Distance)))
		}
	case m.Status != "":
		sb.WriteString(listDimStyle.Render(m.Status))
	}
	sb.WriteString("\n")
	return sb.String()
}

func flags(b *blocks.Block) string {
	var out []string
	if b.Collapsed() {
		out = append(out, "collapsed")
	}
	if b.EffectiveDisabled() {
		out = append(out, "disabled")
	}
	return strings.Join(out, ",")
}
