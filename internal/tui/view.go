package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/selector"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.helpView()
	case ModeLogin:
		return m.loginView()
	default:
		return m.formView()
	}
}

func (m Model) loginView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Sign in"))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Email") + m.email.View() + "\n")
	sb.WriteString(labelStyle.Render("Password") + m.password.View() + "\n")
	if m.loginErr != "" {
		sb.WriteString("\n" + errorStyle.Render(m.loginErr) + "\n")
	}

	hint := "Enter: next / sign in | Tab: switch field | Esc: quit"
	return m.header("") + "\n" + cardStyle.Render(sb.String()) + "\n" + m.statusBar(hint)
}

func (m Model) formView() string {
	st := m.selector.Snapshot()

	rows := make([]string, 0, fieldCount)
	for f := field(0); f < fieldCount; f++ {
		if f == fieldLoadBalancer && !st.LogType.RequiresLoadBalancer() {
			rows = append(rows, m.row(f, dimStyle.Render(st.LoadBalancer.Placeholder)))
			continue
		}
		rows = append(rows, m.row(f, m.fieldValue(f, st)))
	}

	var sb strings.Builder
	sb.WriteString(m.header(m.user))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render(actionHint(st)))
	sb.WriteString("\n\n")

	if msg, ok := m.region.Current(); ok {
		if msg.Busy {
			msg.Title = m.spinner.View() + " " + msg.Title
		}
		sb.WriteString(present.Terminal(msg, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString(m.statusBar("Tab: next field | ←/→: change | ?: help | Ctrl+C: quit"))
	return sb.String()
}

// row renders one labelled form row with a focus marker
func (m Model) row(f field, value string) string {
	marker := "  "
	label := labelStyle.Render(f.label())
	if m.focus == f {
		marker = "› "
		label = focusedLabelStyle.Render(f.label())
	}
	return marker + label + value
}

// fieldValue renders the current value of a form row
func (m Model) fieldValue(f field, st selector.State) string {
	switch f {
	case fieldTenant:
		return m.tenant.View()
	case fieldLogType:
		return choice(st.LogType.Label(), m.focus == f)
	case fieldNamespace:
		return m.selectValue(st.Namespace, m.focus == f)
	case fieldLoadBalancer:
		return m.selectValue(st.LoadBalancer, m.focus == f)
	case fieldHours:
		return hoursLabel(st)
	case fieldCustomHours:
		return m.custom.View()
	}
	return ""
}

func (m Model) selectValue(fld selector.Field, focused bool) string {
	switch {
	case fld.Status == selector.StatusLoading:
		return m.spinner.View() + " " + dimStyle.Render(fld.Placeholder)
	case fld.Status == selector.StatusError:
		return errorStyle.Render(fld.Placeholder)
	case fld.Value != "":
		return choice(fld.Value, focused)
	default:
		return dimStyle.Render(fld.Placeholder)
	}
}

// choice decorates a select value with arrows when it has focus
func choice(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return value
}

// actionHint lists the actions available for the current selection
func actionHint(st selector.State) string {
	actions := []string{"Ctrl+F fetch logs"}
	if st.CanIndex() {
		actions = append(actions, "Ctrl+E send to index")
	}
	if st.CanDiagnose() {
		actions = append(actions, "Ctrl+D diagnose")
	}
	actions = append(actions, "Ctrl+S save export", "Ctrl+R clear", "Ctrl+O log out")
	return strings.Join(actions, "  ")
}
