package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorErr    = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	// StyleLink renders URLs such as the editor address.
	StyleLink = lipgloss.NewStyle().Foreground(colorLink).Underline(true)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)

	styleValue   = lipgloss.NewStyle().Foreground(colorValue)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleWarnMsg = lipgloss.NewStyle().Foreground(colorWarn)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
	styleHit     = lipgloss.NewStyle().Foreground(colorOK)
	styleMiss    = lipgloss.NewStyle().Foreground(colorLabel)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorOK)
	styleIconError   = lipgloss.NewStyle().Foreground(colorErr)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorWarn)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorLabel)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + styleWarnMsg.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + styleValue.Render(value))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println()
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Diagram stats
// =============================================================================

// statParts lists the non-zero counts of a run followed by the cache state
// of each stage that ran.
func statParts(s pipeline.Stats, ci pipeline.CacheInfo, rendered bool) []string {
	var parts []string
	add := func(n int, one, many string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, pluralize(n, one, many)))
		}
	}
	add(s.TableCount, "table", "tables")
	add(s.RelationshipCount, "relationship", "relationships")
	if s.Restored > 0 {
		parts = append(parts, fmt.Sprintf("%d restored", s.Restored))
	}
	if s.Placed > 0 {
		parts = append(parts, fmt.Sprintf("%d placed", s.Placed))
	}
	parts = append(parts, hitLabel("layout", ci.LayoutHit))
	if rendered {
		parts = append(parts, hitLabel("render", ci.RenderHit))
	}
	return parts
}

func hitLabel(stage string, hit bool) string {
	if hit {
		return styleHit.Render(stage + " cached")
	}
	return styleMiss.Render(stage + " fresh")
}

// printStats prints a run summary on one line.
func printStats(s pipeline.Stats, ci pipeline.CacheInfo, rendered bool) {
	fmt.Println("  " + strings.Join(statParts(s, ci, rendered), StyleDim.Render(" · ")))
}

// printUsage prints one line per cache stage.
func printUsage(usage []cache.Usage) {
	for _, u := range usage {
		line := fmt.Sprintf("%d %s, %s", u.Entries, pluralize(u.Entries, "entry", "entries"), formatBytes(u.Bytes))
		if u.Expired > 0 {
			line += StyleDim.Render(fmt.Sprintf(" (%d expired)", u.Expired))
		}
		printKeyValue(string(u.Stage), line)
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
