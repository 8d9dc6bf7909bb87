package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
	"github.com/workforge/forgedesk/internal/theme"
)

// Mode represents the current state of the sign-in view.
type Mode int

const (
	ModeForm       Mode = iota // Editing URL and token
	ModeValidating             // Calling the profile endpoint
	ModeFailed                 // Showing the validation error
)

// loginTimeout bounds the validation call.
const loginTimeout = 20 * time.Second

// ConfigDoneMsg signals the view was closed without signing in.
type ConfigDoneMsg struct{}

// LoggedInMsg signals the token was validated and stored.
type LoggedInMsg struct {
	Greeting string
}

// loginResultMsg carries the result of a validation attempt.
type loginResultMsg struct {
	greeting string
	err      error
}

// Model is the Bubble Tea model for the sign-in form.
type Model struct {
	mode    Mode
	cfg     *model.AppConfig
	cfgPath string

	form *huh.Form

	// Form field values (huh binds to these)
	formBaseURL string
	formToken   string

	err     error
	spinner spinner.Model

	keys          *keys.KeyMap
	width, height int
}

// New creates a new sign-in view. A successful sign-in updates cfg and
// writes it to cfgPath.
func New(cfg *model.AppConfig, cfgPath string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeForm,
		cfg:     cfg,
		cfgPath: cfgPath,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init resets the form, prefilled with the configured URL.
func (m *Model) Init() tea.Cmd {
	m.mode = ModeForm
	m.err = nil
	m.formBaseURL = m.cfg.Server.BaseURL
	m.formToken = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.mode = ModeFailed
			return m, nil
		}
		greeting := msg.greeting
		m.mode = ModeForm
		return m, func() tea.Msg { return LoggedInMsg{Greeting: greeting} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeFailed:
			return m.handleFailedKeys(msg)
		case ModeValidating:
			return m, nil
		}
	}

	return m.updateForm(msg)
}

func (m Model) handleFailedKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "r":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.login())
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Select):
		m.mode = ModeForm
		m.err = nil
		m.form = m.buildForm()
		return m, m.form.Init()
	}
	return m, nil
}

// --- Form ---

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Work Forge URL").
				Description("Root of your Work Forge deployment").
				Placeholder("https://forge.example.com").
				Value(&m.formBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Access token").
				Description("Bearer token from the portal's session").
				EchoMode(huh.EchoModePassword).
				Value(&m.formToken).
				Validate(validateRequired("Token")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.login())
	case huh.StateAborted:
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}

	return m, cmd
}

// login validates the entered credentials and persists them.
func (m Model) login() tea.Cmd {
	cfg, path := m.cfg, m.cfgPath
	baseURL := strings.TrimRight(strings.TrimSpace(m.formBaseURL), "/")
	token := strings.TrimSpace(m.formToken)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()

		greeting, err := session.Login(ctx, path, cfg, baseURL, token)
		return loginResultMsg{greeting: greeting, err: err}
	}
}

// --- View ---

// View renders the sign-in UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf("%s Signing in to %s...", m.spinner.View(), m.formBaseURL))

	case ModeFailed:
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		return style.Render(
			errStyle.Render("Sign-in failed") + "\n\n" +
				m.err.Error() + "\n\n" +
				lipgloss.NewStyle().Foreground(theme.ColorGray).
					Render("r retry | enter/esc edit"),
		)
	}

	if m.form == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Sign in to Work Forge"),
		m.form.View(),
	))
}

// Mode returns the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}
