package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listPinnedStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PickModel - Interactive override selection
// =============================================================================

// PickModel is the bubbletea model for choosing overrides layer by layer.
type PickModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	output string

	Layers   []pipeline.LayerInfo
	Cursor   int
	Status   string
	Exported string
}

// NewPickModel creates a picker over runner. Enter writes the composite to
// output.
func NewPickModel(ctx context.Context, runner *pipeline.Runner, output string) PickModel {
	return PickModel{ctx: ctx, runner: runner, output: output, Layers: runner.Layers()}
}

func (m PickModel) Init() tea.Cmd {
	return nil
}

func (m PickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Layers)-1 {
			m.Cursor++
		}
	case "left", "h":
		m.cycle(-1)
	case "right", "l":
		m.cycle(1)
	case "x":
		if m.runner.ClearOverride(m.layer().Name) {
			m.Status = m.layer().Name + " back to random"
		}
	case "X":
		if n := m.runner.ClearOverrides(); n > 0 {
			m.Status = fmt.Sprintf("unpinned %d layers", n)
		}
	case "r":
		m.runner.Randomize()
		m.Status = "drew again"
	case "enter":
		if err := m.runner.ExportComposite(m.ctx, m.output); err != nil {
			m.Status = errors.UserMessage(err)
			return m, nil
		}
		m.Exported = m.output
		return m, tea.Quit
	}
	m.Layers = m.runner.Layers()
	return m, nil
}

func (m PickModel) layer() pipeline.LayerInfo {
	return m.Layers[m.Cursor]
}

// cycle pins the current layer to the trait step places away from the one
// shown now.
func (m *PickModel) cycle(step int) {
	l := m.layer()
	if len(l.Assets) == 0 {
		m.Status = l.Name + " has no traits"
		return
	}
	i := slices.Index(l.Assets, l.Current)
	if i < 0 {
		i = 0
	} else {
		i = (i + step + len(l.Assets)) % len(l.Assets)
	}
	if err := m.runner.SetOverride(l.Name, l.Assets[i]); err != nil {
		m.Status = errors.UserMessage(err)
		return
	}
	m.Status = fmt.Sprintf("%s pinned to %s", l.Name, l.Assets[i])
}

func (m PickModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pick Traits"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ layer  ←/→ trait  x unpin  X unpin all  r redraw  ⏎ export  q quit"))
	b.WriteString("\n\n")

	for i, l := range m.Layers {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		pin := " "
		if l.Overridden {
			pin = iconPinned
		}
		current := l.Current
		if current == "" {
			current = "—"
		}
		pos := ""
		if j := slices.Index(l.Assets, l.Current); j >= 0 {
			pos = fmt.Sprintf("%d/%d", j+1, len(l.Assets))
		}
		line := fmt.Sprintf("%s%s %-14s %-24s %s", cursor, pin, l.Name, current, listDimStyle.Render(pos))

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case l.Overridden:
			b.WriteString(listPinnedStyle.Render(line))
		case len(l.Assets) == 0:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  " + m.Status))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Command
// =============================================================================

func (c *CLI) pickCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose traits interactively and export the portrait",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()
			if output == "" {
				output = filepath.Join(cfg.OutputDir, "portrait.png")
			}

			final, err := tea.NewProgram(NewPickModel(ctx, e.Runner, output), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(PickModel); ok && m.Exported != "" {
				printSuccess("Exported portrait")
				printFile(m.Exported)
				for layer, name := range e.Overrides() {
					printDetail("%s = %s", layer, name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <output_dir>/portrait.png)")
	return cmd
}
