package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/selector"
)

// maxStatusLen is the maximum length of a message in the status bar
const maxStatusLen = 60

// field identifies a form row
type field int

const (
	fieldTenant field = iota
	fieldLogType
	fieldNamespace
	fieldLoadBalancer
	fieldHours
	fieldCustomHours
	fieldCount
)

func (f field) label() string {
	switch f {
	case fieldTenant:
		return "Tenant"
	case fieldLogType:
		return "Log type"
	case fieldNamespace:
		return "Namespace"
	case fieldLoadBalancer:
		return "Load balancer"
	case fieldHours:
		return "Time range"
	case fieldCustomHours:
		return "Custom hours"
	}
	return ""
}

// isText reports whether the field takes typed input
func (f field) isText() bool {
	return f == fieldTenant || f == fieldCustomHours
}

// BaseModel holds the screen state shared by the login and form screens
type BaseModel struct {
	// UI components
	spinner spinner.Model
	tenant  textinput.Model
	custom  textinput.Model

	// Mode
	mode     Mode
	lastMode Mode // restored when help closes

	// Form focus
	focus field

	// Outstanding commands; the spinner runs while any is in flight
	pending int

	// One-line feedback in the status bar
	status    string
	statusErr bool

	// Dimensions
	width  int
	height int
	ready  bool
}

// newBaseModel creates a new BaseModel
func newBaseModel() BaseModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tenant := newInput("e.g. acme", 128)
	custom := newInput("hours", 4)
	custom.Width = 6
	custom.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}

	return BaseModel{
		spinner: sp,
		tenant:  tenant,
		custom:  custom,
		mode:    ModeLogin,
	}
}

// handleWindowSize handles window resize messages
func (b *BaseModel) handleWindowSize(msg tea.WindowSizeMsg) {
	b.width = msg.Width
	b.height = msg.Height
	b.ready = true
}

// focusField moves the form focus, focusing the text input that belongs to it
func (b *BaseModel) focusField(f field) {
	b.focus = f
	b.tenant.Blur()
	b.custom.Blur()
	switch f {
	case fieldTenant:
		b.tenant.Focus()
	case fieldCustomHours:
		b.custom.Focus()
	}
}

// nextField returns the next focusable field in direction delta. The load
// balancer is skipped for log types that have none.
func nextField(current field, delta int, st selector.State) field {
	f := current
	for range fieldCount {
		f = (f + field(delta) + fieldCount) % fieldCount
		if f == fieldLoadBalancer && !st.LogType.RequiresLoadBalancer() {
			continue
		}
		return f
	}
	return current
}

// cycle steps through options from current. With no current value the first
// step lands on the first or last option.
func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	i := slices.Index(options, current)
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = len(options) - 1
	default:
		i = (i + delta + len(options)) % len(options)
	}
	return options[i]
}

// cycleLogType steps through the known log types
func cycleLogType(current domain.LogType, delta int) domain.LogType {
	n := len(domain.LogTypes)
	i := slices.Index(domain.LogTypes, current)
	if i < 0 {
		return domain.LogTypes[0]
	}
	return domain.LogTypes[(i+delta+n)%n]
}

// cycleHours steps through the presets
func cycleHours(current, delta int) int {
	presets := constants.HourPresets
	n := len(presets)
	i := slices.Index(presets, current)
	if i < 0 {
		return constants.DefaultHours
	}
	return presets[(i+delta+n)%n]
}

func (b *BaseModel) setStatus(text string, isErr bool) {
	b.status = text
	b.statusErr = isErr
}

// header renders the title bar
func (b *BaseModel) header(user string) string {
	left := titleStyle.Render("logdesk")
	if user != "" {
		left += "  " + dimStyle.Render(user)
	}
	return headerStyle.Render(left)
}

// statusBar renders the bottom status bar
func (b *BaseModel) statusBar(hint string) string {
	left := hint
	if b.status != "" {
		text := truncate(b.status, maxStatusLen)
		if b.statusErr {
			text = errorStyle.Render(text)
		}
		left = text + " | " + hint
	}

	right := ""
	if b.pending > 0 {
		right = b.spinner.View() + " working"
	}

	leftWidth := b.width - lipgloss.Width(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(left)
	rightPart := statusStyle.Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// helpView renders the help overlay
func (b *BaseModel) helpView() string {
	help := fmt.Sprintf(`
logdesk - Log Export Console

Form:
  Tab/↓      Next field
  Shift+Tab/↑ Previous field
  ←/→        Change selection
  Enter      Apply tenant or custom hours

Actions:
  Ctrl+F     Fetch logs
  Ctrl+E     Send logs to the search index
  Ctrl+D     Diagnose the load balancer
  Ctrl+S     Save the last export to disk
  Ctrl+R     Clear the form

Other:
  Ctrl+O     Log out
  ?          Toggle help (outside text fields)
  Ctrl+C     Quit

Time ranges are 1 to %d hours.

Press any key to close help...
`, constants.MaxHours)

	return helpStyle.Render(help)
}

// truncate shortens s to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

// hoursLabel renders the preset row with the active preset bracketed
func hoursLabel(st selector.State) string {
	parts := make([]string, 0, len(constants.HourPresets))
	for _, h := range constants.HourPresets {
		text := strconv.Itoa(h) + "h"
		if h == st.Hours && st.CustomHours == 0 {
			text = "[" + text + "]"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
