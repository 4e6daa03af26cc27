package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/selector"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		m.loginBusy = false
		m.done()
		if msg.err != nil {
			m.password.SetValue("")
			if errors.Is(msg.err, domain.ErrInvalidCredentials) {
				m.loginErr = "Invalid email or password"
			} else {
				m.logger.Error("login failed", "error", msg.err)
				m.loginErr = "Login is unavailable, try again later"
			}
			return m, nil
		}
		m.logger.Info("login", "email", msg.session.Email)
		m.enterForm(msg.session.Email)
		return m, nil

	case loggedOutMsg:
		m.done()
		if msg.err != nil {
			m.setStatus("Logout failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.user = ""
		m.mode = ModeLogin
		m.resetForm()
		m.tenant.Blur()
		m.email.Focus()
		m.setStatus("", false)
		return m, nil

	case formUpdatedMsg:
		m.done()
		return m, nil

	case actionDoneMsg:
		m.done()
		if msg.export != nil {
			m.lastExport = msg.export
		}
		return m, nil

	case downloadDoneMsg:
		m.done()
		if msg.err != nil {
			m.setStatus("Download failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Saved "+msg.path, false)
		}
		return m, nil
	}

	return m, nil
}

// start counts an outstanding command and keeps the spinner running
func (m *Model) start(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	m.pending++
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) done() {
	if m.pending > 0 {
		m.pending--
	}
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeHelp:
		m.mode = m.lastMode
		return m, nil
	case ModeLogin:
		return m.handleLoginKey(msg)
	}
	return m.handleFormKey(msg)
}

// handleLoginKey handles keys on the login screen
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
		} else {
			m.password.Blur()
			m.email.Focus()
		}
		return m, nil

	case "enter":
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
			return m, nil
		}
		if m.loginBusy {
			return m, nil
		}
		m.loginBusy = true
		m.loginErr = ""
		return m, m.start(m.loginCmd(m.email.Value(), m.password.Value()))

	case "esc":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// handleFormKey handles keys on the main screen
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.selector.Snapshot()

	switch msg.String() {
	case "tab", "down":
		return m.moveFocus(1, st)
	case "shift+tab", "up":
		return m.moveFocus(-1, st)

	case "ctrl+f":
		return m.runAction(m.fetchLogsCmd)
	case "ctrl+e":
		return m.runAction(m.sendToIndexCmd)
	case "ctrl+d":
		return m.runAction(m.diagnoseCmd)
	case "ctrl+s":
		if m.lastExport == nil || m.lastExport.File == "" {
			m.setStatus("Fetch logs before saving", true)
			return m, nil
		}
		m.setStatus("Downloading "+m.lastExport.File+"...", false)
		return m, m.start(m.downloadCmd(m.lastExport.File))
	case "ctrl+r":
		m.resetForm()
		m.setStatus("", false)
		return m, nil
	case "ctrl+o":
		return m, m.start(m.logoutCmd())
	}

	if m.focus.isText() {
		return m.handleTextKey(msg)
	}

	switch msg.String() {
	case "left", "h":
		return m.changeChoice(-1, st)
	case "right", "l", " ":
		return m.changeChoice(1, st)
	case "enter":
		return m.runAction(m.fetchLogsCmd)
	case "?":
		m.lastMode = m.mode
		m.mode = ModeHelp
		return m, nil
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

// handleTextKey feeds the tenant and custom hours inputs
func (m Model) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		return m.commitText()
	}

	var cmd tea.Cmd
	if m.focus == fieldTenant {
		m.tenant, cmd = m.tenant.Update(msg)
	} else {
		m.custom, cmd = m.custom.Update(msg)
	}
	return m, cmd
}

// moveFocus commits the focused text field, then moves the focus
func (m Model) moveFocus(delta int, st selector.State) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus.isText() {
		var next tea.Model
		next, cmd = m.commitText()
		m = next.(Model)
	}
	m.focusField(nextField(m.focus, delta, st))
	return m, cmd
}

// commitText applies the focused text field to the selection
func (m Model) commitText() (tea.Model, tea.Cmd) {
	switch m.focus {
	case fieldTenant:
		tenant := strings.TrimSpace(m.tenant.Value())
		if tenant == m.selector.Snapshot().Tenant {
			return m, nil
		}
		return m, m.start(m.selectorCmd(func(ctx context.Context, sel *selector.Selector) {
			sel.OnTenantChange(ctx, tenant)
		}))

	case fieldCustomHours:
		raw := strings.TrimSpace(m.custom.Value())
		hours := 0
		if raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				m.region.Show(present.Validation(domain.ErrInvalidHours))
				return m, nil
			}
			hours = n
		}
		if err := m.selector.SetCustomHours(hours); err != nil {
			m.region.Show(present.Validation(err))
		}
	}
	return m, nil
}

// changeChoice steps the focused select field
func (m Model) changeChoice(delta int, st selector.State) (tea.Model, tea.Cmd) {
	switch m.focus {
	case fieldLogType:
		logType := cycleLogType(st.LogType, delta)
		return m, m.start(m.selectorCmd(func(ctx context.Context, sel *selector.Selector) {
			sel.OnLogTypeChange(ctx, logType)
		}))

	case fieldNamespace:
		if !st.Namespace.Selectable() {
			return m, nil
		}
		namespace := cycle(st.Namespace.Options, st.Namespace.Value, delta)
		return m, m.start(m.selectorCmd(func(ctx context.Context, sel *selector.Selector) {
			sel.OnNamespaceChange(ctx, namespace)
		}))

	case fieldLoadBalancer:
		if !st.LoadBalancer.Selectable() {
			return m, nil
		}
		m.selector.OnLoadBalancerChange(cycle(st.LoadBalancer.Options, st.LoadBalancer.Value, delta))

	case fieldHours:
		hours := st.Hours
		if st.CustomHours == 0 {
			hours = cycleHours(st.Hours, delta)
		}
		if err := m.selector.SetHours(hours); err != nil {
			m.region.Show(present.Validation(err))
			return m, nil
		}
		_ = m.selector.SetCustomHours(0)
		m.custom.SetValue("")
	}
	return m, nil
}

// runAction commits pending text input, then starts the action built by
// build. Validation failures show in the region without a command.
func (m Model) runAction(build func() tea.Cmd) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.setStatus("Still working, please wait", true)
		return m, nil
	}
	if m.focus == fieldTenant && strings.TrimSpace(m.tenant.Value()) != m.selector.Snapshot().Tenant {
		m.setStatus("Tenant changed, loading namespaces", false)
		return m.commitText()
	}
	if m.focus == fieldCustomHours {
		next, _ := m.commitText()
		m = next.(Model)
	}
	m.setStatus("", false)
	return m, m.start(build())
}
