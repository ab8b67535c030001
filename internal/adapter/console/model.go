package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"webrelay/internal/domain"
	"webrelay/internal/relay"
)

const activityPanelWidth = 44

type focusArea int

const (
	focusEndpoint focusArea = iota
	focusURL
	focusSurface
)

// Model is the root Bubble Tea model of the operator console. It hosts
// the relay: the surface supplies geometry, terminal events become
// relay input, and relay state is re-read from authoritative snapshots
// on every repaint.
type Model struct {
	session *relay.Session
	log     *relay.ActivityLog
	logger  *slog.Logger

	endpoint textinput.Model
	urlInput textinput.Model
	spin     spinner.Model
	surface  *Surface

	focus    focusArea
	width    int
	height   int
	showHelp bool
	helpView string
	quitting bool

	events      chan domain.Event
	unsub       func()
	renderEvery time.Duration

	// Surface view refreshed on render ticks, not per inbound frame.
	surfaceView string
}

// New creates the console model. initialEndpoint is applied on startup.
func New(session *relay.Session, log *relay.ActivityLog, bus domain.EventBus, surface *Surface, renderFPS int, initialEndpoint string, logger *slog.Logger) Model {
	ep := textinput.New()
	ep.Placeholder = "http://host:port"
	ep.SetValue(initialEndpoint)
	ep.Prompt = ""
	ep.Focus()

	urlIn := textinput.New()
	urlIn.Placeholder = "https://..."
	urlIn.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorConnecting)

	if renderFPS < 1 {
		renderFPS = 24
	}
	events, unsub := pumpEvents(bus)

	return Model{
		session:     session,
		log:         log,
		logger:      logger,
		endpoint:    ep,
		urlInput:    urlIn,
		spin:        sp,
		surface:     surface,
		events:      events,
		unsub:       unsub,
		renderEvery: time.Second / time.Duration(renderFPS),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		textinput.Blink,
		listenEvents(m.events),
		renderTick(m.renderEvery),
		m.configureCmd(m.endpoint.Value()),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.helpView = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case relayEventMsg:
		// State, activity, and command outcomes are re-read in View.
		return m, listenEvents(m.events)

	case renderTickMsg:
		m.surfaceView = m.surface.Render(m.session.LatestFrame())
		return m, renderTick(m.renderEvery)

	case configureDoneMsg:
		if msg.err != nil {
			m.log.Recordf("Invalid endpoint %q: %v", msg.endpoint, msg.err)
		}
		return m, nil

	case navDoneMsg:
		// Already recorded by the navigator.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		if m.unsub != nil {
			m.unsub()
		}
		return m, tea.Quit
	case tea.KeyF1:
		m.showHelp = !m.showHelp
		return m, nil
	case tea.KeyTab:
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.focus {
	case focusEndpoint:
		if msg.Type == tea.KeyEnter {
			return m, m.configureCmd(strings.TrimSpace(m.endpoint.Value()))
		}
		var cmd tea.Cmd
		m.endpoint, cmd = m.endpoint.Update(msg)
		return m, cmd

	case focusURL:
		if msg.Type == tea.KeyEnter {
			url := strings.TrimSpace(m.urlInput.Value())
			if url != "" {
				return m, m.navigateCmd(func(ctx context.Context, n *relay.Navigator) error {
					return n.GoTo(ctx, url)
				})
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		return m, cmd

	case focusSurface:
		if msg.Alt && msg.Type == tea.KeyLeft {
			return m, m.navigateCmd(func(ctx context.Context, n *relay.Navigator) error {
				return n.Back(ctx)
			})
		}
		if msg.Alt && msg.Type == tea.KeyRight {
			return m, m.navigateCmd(func(ctx context.Context, n *relay.Navigator) error {
				return n.Forward(ctx)
			})
		}
		if key, ok := keyName(msg); ok {
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputKeyDown, Key: key})
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.surface.Contains(msg.X, msg.Y) {
		return m, nil
	}
	x, y := float64(msg.X), float64(msg.Y)

	switch msg.Action {
	case tea.MouseActionMotion:
		m.session.HandleInput(domain.InputEvent{Kind: domain.InputPointerMove, X: x, Y: y})

	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.setFocus(focusSurface)
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputClick, X: x, Y: y})
		// Wheel ticks stay on the surface: the relay owns scroll
		// semantics, so no console widget ever sees them.
		case tea.MouseButtonWheelUp:
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputWheel, DY: -3})
		case tea.MouseButtonWheelDown:
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputWheel, DY: 3})
		case tea.MouseButtonWheelLeft:
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputWheel, DX: -2})
		case tea.MouseButtonWheelRight:
			m.session.HandleInput(domain.InputEvent{Kind: domain.InputWheel, DX: 2})
		}
	}
	return m, nil
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.endpoint.Blur()
	m.urlInput.Blur()
	switch f {
	case focusEndpoint:
		m.endpoint.Focus()
	case focusURL:
		m.urlInput.Focus()
	}
}

// layout recomputes widget sizes and the surface viewport from the
// window size. The surface content box itself is refined per render,
// since it depends on the current frame's aspect ratio.
func (m *Model) layout() {
	inputW := m.width - activityPanelWidth - 16
	if inputW < 10 {
		inputW = 10
	}
	m.endpoint.Width = inputW
	m.urlInput.Width = inputW

	surfW := m.width - activityPanelWidth
	mainH := m.height - 3
	// Inner box inside the rounded border at (0, 2).
	m.surface.SetViewport(1, 3, max(0, surfW-2), max(0, mainH-2))
}

func (m Model) configureCmd(endpoint string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.Configure(context.Background(), endpoint)
		return configureDoneMsg{endpoint: endpoint, err: err}
	}
}

func (m Model) navigateCmd(op func(context.Context, *relay.Navigator) error) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		nav := sess.Navigator()
		if nav == nil {
			return navDoneMsg{err: domain.ErrNotConnected}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return navDoneMsg{err: op(ctx, nav)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "  starting..."
	}
	if m.showHelp {
		if m.helpView == "" {
			m.helpView = renderHelp(m.width)
		}
		return m.helpView
	}

	header := m.viewHeader()
	urlRow := m.viewURLRow()
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.viewSurface(), m.viewActivity())
	status := m.viewStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, urlRow, main, status)
}

func (m Model) viewHeader() string {
	return labelStyle.Render(" Endpoint: ") + m.endpoint.View() + "  " + m.viewState()
}

func (m Model) viewURLRow() string {
	return labelStyle.Render("      URL: ") + m.urlInput.View()
}

func (m Model) viewState() string {
	switch m.session.State() {
	case domain.StateConnected:
		return lipgloss.NewStyle().Foreground(colorConnected).Render("● connected")
	case domain.StateConnecting:
		return m.spin.View() + lipgloss.NewStyle().Foreground(colorConnecting).Render("connecting")
	case domain.StateError:
		return lipgloss.NewStyle().Foreground(colorError).Render("● error")
	default:
		return mutedStyle.Render("○ disconnected")
	}
}

func (m Model) viewSurface() string {
	surfW := m.width - activityPanelWidth
	mainH := m.height - 3
	box := inactiveBox
	if m.focus == focusSurface {
		box = activeBox
	}
	view := m.surfaceView
	if view == "" {
		view = m.surface.Render(m.session.LatestFrame())
	}
	return box.Width(max(0, surfW-2)).Height(max(0, mainH-2)).Render(view)
}

func (m Model) viewActivity() string {
	mainH := m.height - 3
	innerW := activityPanelWidth - 2

	lines := []string{labelStyle.Render("Activity")}
	for _, e := range m.log.Entries() {
		if len(e) > innerW {
			e = e[:innerW-1] + "…"
		}
		lines = append(lines, mutedStyle.Render(e))
	}
	body := strings.Join(lines, "\n")
	return inactiveBox.Width(innerW).Height(max(0, mainH-2)).Render(body)
}

func (m Model) viewStatusBar() string {
	hints := []string{
		statusKey.Render("Tab") + ": focus",
		statusKey.Render("F1") + ": help",
		statusKey.Render("Ctrl+C") + ": quit",
	}
	left := " " + strings.Join(hints, mutedStyle.Render("  |  "))

	var right string
	if f := m.session.LatestFrame(); f != nil {
		w, h := f.Size()
		right = mutedStyle.Render(fmt.Sprintf("%s %dx%d  gen %d ", f.Format, w, h, f.Generation))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
