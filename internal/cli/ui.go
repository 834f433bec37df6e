package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconPinned  = "●"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Engine Reports
// =============================================================================

// printWarnings prints each non-fatal condition on its own line.
func printWarnings(ws errors.Warnings) {
	for _, w := range ws {
		printWarning("%s", errors.UserMessage(w))
	}
}

// printRefresh summarises a catalog load on a single line.
func printRefresh(r *pipeline.RefreshReport) {
	parts := []string{fmt.Sprintf("%d traits", r.Assets)}
	if r.Hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", r.Hidden))
	}
	if r.Cached > 0 {
		parts = append(parts, styleCached.Render(fmt.Sprintf("%d cached", r.Cached)))
	}
	printDetail("%s", strings.Join(parts, " · "))
	printWarnings(r.Warnings)
}

// printApply summarises an apply-all batch.
func printApply(r *pipeline.ApplyReport) {
	printSuccess("Applied %d selections, %d renames", r.Selected, r.Renamed)
	for _, f := range r.Failed {
		printError("%s", errors.UserMessage(f))
	}
}

// layerTable renders the layer listing.
func layerTable(layers []pipeline.LayerInfo, showAssets bool) string {
	rows := make([][]string, 0, len(layers))
	for _, l := range layers {
		pinned := ""
		if l.Overridden {
			pinned = iconPinned
		}
		current := l.Current
		if current == "" {
			current = "—"
		}
		noise := "off"
		if l.Noise {
			noise = strconv.FormatFloat(l.Intensity, 'f', 2, 64)
		}
		row := []string{l.Name, strconv.Itoa(len(l.Assets)), current, pinned, noise}
		if showAssets {
			row = append(row, strings.Join(l.Assets, ", "))
		}
		rows = append(rows, row)
	}

	headers := []string{"Layer", "Traits", "Current", "", "Noise"}
	if showAssets {
		headers = append(headers, "Files")
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row < len(layers) && layers[row].Overridden {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			if col == 2 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
