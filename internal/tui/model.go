package tui

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/toast"
	"github.com/colonyops/scribe/internal/tui/components"
)

var errNoBrowser = errors.New("no browser configured")

// headerHeight and footerHeight are the rows reserved around the screen body.
const (
	headerHeight = 2
	footerHeight = 1
)

// Options configures the TUI.
type Options struct {
	Config  *config.Config
	Auth    *auth.Service
	Scripts *script.Service
	Toasts  *toast.Engine
	OAuth   *auth.OAuth // nil disables "Continue with Google"

	// OpenURL opens the OAuth consent page. Required when OAuth is set.
	OpenURL func(url string) error
	// Clipboard writes to the system clipboard. Defaults to atotto/clipboard.
	Clipboard func(text string) error
	// Warnings are shown as a toast on start.
	Warnings []string
}

// Model is the root Bubble Tea model. It owns the active screen, the toast
// overlay and the help dialog.
type Model struct {
	env      *env
	screen   screen
	toasts   *ToastController
	toast    *ToastView
	warnings []string

	width    int
	height   int
	showHelp bool
	counting bool
	quitting bool
}

// New creates the root model. The first screen is the generator when a
// session is already active, otherwise the welcome screen.
func New(ctx context.Context, opts Options) Model {
	e := &env{
		ctx:       ctx,
		cfg:       opts.Config,
		auth:      opts.Auth,
		scripts:   opts.Scripts,
		toasts:    opts.Toasts,
		oauth:     opts.OAuth,
		openURL:   opts.OpenURL,
		clipboard: opts.Clipboard,
	}
	if e.clipboard == nil {
		e.clipboard = clipboard.WriteAll
	}
	if e.openURL == nil {
		e.openURL = func(string) error { return errNoBrowser }
	}

	var first screen = newWelcomeScreen(e)
	if _, ok := e.auth.Session(); ok {
		first = newGeneratorScreen(e)
	}

	return Model{
		env:      e,
		screen:   first,
		toasts:   NewToastController(opts.Toasts),
		toast:    NewToastView(opts.Toasts),
		warnings: opts.Warnings,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.toasts.Listen(), m.screen.Init()}
	if len(m.warnings) > 0 {
		m.env.toasts.Warning(m.warnings[0])
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m.forward(m.bodySize())

	case toastChangedMsg:
		return m, m.toasts.HandleEvent(msg)

	case toastFrameMsg:
		return m, m.toasts.HandleFrame()

	case countdownMsg:
		m.counting = false
		return m, m.startCountdown()

	case navigateMsg:
		return m.handleNavigate(msg)

	case tea.MouseClickMsg, tea.MouseMotionMsg, tea.MouseReleaseMsg:
		if m.toasts.HandleMouse(msg.(tea.MouseMsg), m.width, m.height) {
			return m, nil
		}

	case tea.KeyPressMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}
		if m.showHelp {
			return m, nil
		}
	}

	return m.forward(msg)
}

// forward passes msg to the active screen and keeps the countdown alive.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, tea.Batch(cmd, m.startCountdown())
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return true, tea.Quit
	case "ctrl+x":
		return m.toasts.Close(), nil
	case "f1":
		m.showHelp = !m.showHelp
		return true, nil
	case "?":
		if c, ok := m.screen.(inputCapturer); ok && c.CapturingInput() {
			return false, nil
		}
		m.showHelp = !m.showHelp
		return true, nil
	case "esc", "q":
		if m.showHelp {
			m.showHelp = false
			return true, nil
		}
	}
	return false, nil
}

func (m Model) handleNavigate(msg navigateMsg) (tea.Model, tea.Cmd) {
	m.screen = msg.to
	m.showHelp = false
	m.counting = false

	initCmd := m.screen.Init()
	var sizeCmd tea.Cmd
	m.screen, sizeCmd = m.screen.Update(m.bodySize())

	return m, tea.Batch(initCmd, sizeCmd, m.startCountdown())
}

// startCountdown ticks once a second while the screen's throttle window is
// open.
func (m *Model) startCountdown() tea.Cmd {
	if m.counting {
		return nil
	}
	t := m.screen.Throttle()
	if t == nil || t.CanResend() {
		return nil
	}
	m.counting = true
	return scheduleCountdown()
}

func (m Model) bodySize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{
		Width:  m.width,
		Height: max(m.height-headerHeight-footerHeight, 1),
	}
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	if m.quitting {
		return v
	}

	v.AltScreen = true
	if m.env.cfg.TUI.MouseEnabled() {
		v.MouseMode = tea.MouseModeCellMotion
	}
	v.WindowTitle = "scribe"
	if a, ok := m.env.toasts.Announcement(); ok {
		v.WindowTitle = "scribe: " + a.Label
	}
	return v
}

// render draws the frame: header, screen body, footer and overlays.
func (m Model) render() string {
	if m.quitting {
		return ""
	}

	body := m.bodySize()
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		lipgloss.NewStyle().Height(body.Height).MaxHeight(body.Height).Render(m.screen.View(body.Width, body.Height)),
		m.footer(),
	)

	if m.showHelp {
		help := components.NewHelpDialog("Keyboard shortcuts", []components.HelpDialogSection{
			m.screen.Help(),
			globalHelp(),
		})
		content = help.Overlay(content, m.width, m.height)
	}
	return m.toast.Overlay(content, m.width, m.height)
}

func (m Model) header() string {
	left := styles.AppTitleStyle.Render(styles.IconScript+" scribe") +
		styles.MutedStyle.Render("  "+m.screen.Title())

	right := ""
	if sess, ok := m.env.auth.Session(); ok {
		right = styles.MutedStyle.Render(sess.Email)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return lipgloss.NewStyle().MarginBottom(1).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) footer() string {
	return styles.StatusBarStyle.Width(max(m.width, 1)).Render(keyHint("?", "help", "ctrl+x", "dismiss", "ctrl+c", "quit"))
}

func globalHelp() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Global",
		Entries: []components.HelpEntry{
			{Key: "?/f1", Desc: "toggle help"},
			{Key: "ctrl+x", Desc: "dismiss notification"},
			{Key: "ctrl+c", Desc: "quit"},
		},
	}
}
