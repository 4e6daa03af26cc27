package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/selector"
	"github.com/charliek/logdesk/internal/session"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeLogin Mode = iota
	ModeForm
	ModeHelp
)

// Config holds the dependencies of the terminal console
type Config struct {
	Storage  session.Storage
	Provider auth.Provider
	Client   Client
	Gate     session.GateConfig
	// OutputDir receives downloaded exports; empty means the working directory
	OutputDir string
	Logger    *slog.Logger
}

// Model is the bubbletea model for the TUI
type Model struct {
	BaseModel

	// Dependencies
	ctx       context.Context
	gate      *session.Gate
	selector  *selector.Selector
	region    *present.Region
	client    Client
	outputDir string
	logger    *slog.Logger

	// Signed-in operator
	user string

	// Login screen
	email     textinput.Model
	password  textinput.Model
	loginErr  string
	loginBusy bool

	// Last finished export, for downloading
	lastExport *domain.LogExport
}

// NewModel creates a new TUI model. It opens on the main screen when a
// session is already stored.
func NewModel(ctx context.Context, cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gateCfg := cfg.Gate
	if gateCfg.Logger == nil {
		gateCfg.Logger = logger
	}

	region := present.NewRegion()
	m := Model{
		BaseModel: newBaseModel(),
		ctx:       ctx,
		gate:      session.NewGate(cfg.Storage, cfg.Provider, gateCfg),
		selector:  selector.New(cfg.Client, region, logger),
		region:    region,
		client:    cfg.Client,
		outputDir: cfg.OutputDir,
		logger:    logger,
		email:     newInput("you@example.com", 254),
		password:  newInput("password", 128),
	}
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'

	if sess := m.gate.CheckSession(ctx); sess != nil {
		m.enterForm(sess.Email)
	} else {
		m.mode = ModeLogin
		m.email.Focus()
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// loginResultMsg is sent when a login attempt completes
type loginResultMsg struct {
	session *domain.Session
	err     error
}

// formUpdatedMsg is sent when a selector change, local or remote, completes
type formUpdatedMsg struct{}

// actionDoneMsg is sent when a remote action completes. The result is
// already in the region.
type actionDoneMsg struct {
	export *domain.LogExport
}

// downloadDoneMsg is sent when an export has been saved to disk
type downloadDoneMsg struct {
	path string
	err  error
}

// loggedOutMsg is sent after the session record is deleted
type loggedOutMsg struct {
	err error
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

// enterForm switches to the main screen with a fresh form
func (m *Model) enterForm(email string) {
	m.user = email
	m.mode = ModeForm
	m.loginErr = ""
	m.password.SetValue("")
	m.email.Blur()
	m.password.Blur()
	m.resetForm()
}

// resetForm clears the selection, the inputs and the result region
func (m *Model) resetForm() {
	m.selector.Reset()
	m.region.Clear()
	m.lastExport = nil
	m.tenant.SetValue("")
	m.custom.SetValue("")
	m.focusField(fieldTenant)
}
