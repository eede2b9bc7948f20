package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
	"github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
)

// ToastDuration is how long an error toast stays on screen.
const ToastDuration = 5 * time.Second

const (
	headerHeight = 1
	inputHeight  = 3
	footerHeight = 2
)

// widgetEventMsg carries one event from the widget into the update loop.
type widgetEventMsg struct {
	event assistant.Event
}

// widgetClosedMsg is sent once the widget's event stream ends.
type widgetClosedMsg struct{}

// toastExpiredMsg dismisses the toast with the same sequence number.
type toastExpiredMsg struct {
	seq int
}

// Model is the terminal Presentation Surface for one assistant widget.
type Model struct {
	widget  *assistant.Widget
	events  <-chan assistant.Event
	release func()

	title    string
	subtitle string

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	messages  []chat.Message
	panelOpen bool
	busy      bool
	toast     *assistant.Notification
	toastSeq  int

	width    int
	height   int
	quitting bool
}

// NewModel subscribes to w and renders its current state.
func NewModel(w *assistant.Widget, title, subtitle string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetWidth(60)
	ta.SetHeight(inputHeight)
	// enter belongs to submission; alt+enter is handled in Update
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = busyStyle

	events, release := w.Subscribe()
	state := w.State()

	m := Model{
		widget:    w,
		events:    events,
		release:   release,
		title:     title,
		subtitle:  subtitle,
		input:     ta,
		viewport:  viewport.New(60, 12),
		spinner:   sp,
		messages:  state.Messages,
		panelOpen: state.PanelOpen,
		busy:      state.Busy,
		width:     64,
		height:    24,
	}
	m.input.SetValue(state.Draft)
	m.renderer = newRenderer(m.viewport.Width)
	m.refreshHistory()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, width-2)),
	)
	if err != nil {
		return nil
	}
	return r
}

func waitForEvent(events <-chan assistant.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return widgetClosedMsg{}
		}
		return widgetEventMsg{event: ev}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case widgetEventMsg:
		cmd := m.applyEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case widgetClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.release()
		return m, tea.Quit
	case "ctrl+o":
		m.panelOpen = m.widget.Toggle()
		return m, nil
	case "esc":
		m.widget.SetOpen(false)
		m.panelOpen = false
		return m, nil
	}

	if !m.panelOpen {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if assistant.IsSubmitKeystroke("enter", msg.Alt) {
			m.submit()
			return m, nil
		}
		m.input.InsertString("\n")
		m.widget.UpdateDraft(m.input.Value())
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.widget.UpdateDraft(m.input.Value())
	return m, cmd
}

// submit hands the draft to the widget. A rejected submission (blank draft
// or a request already in flight) leaves everything unchanged.
func (m *Model) submit() {
	m.widget.UpdateDraft(m.input.Value())
	if _, ok := m.widget.SubmitDraft(context.Background()); !ok {
		return
	}
	m.input.Reset()
	m.busy = true
}

func (m *Model) applyEvent(ev assistant.Event) tea.Cmd {
	switch ev.Type {
	case assistant.EventAppend:
		m.messages = m.widget.Messages()
		m.refreshHistory()
	case assistant.EventScroll:
		m.viewport.GotoBottom()
	case assistant.EventBusy:
		m.busy = ev.Busy
	case assistant.EventPanel:
		m.panelOpen = m.widget.State().PanelOpen
	case assistant.EventDraft:
		// the event may trail keystrokes already applied here; the widget
		// holds the latest draft
		if draft := m.widget.Draft(); m.input.Value() != draft {
			m.input.SetValue(draft)
		}
	case assistant.EventNotification:
		if ev.Notification == nil {
			return nil
		}
		note := *ev.Notification
		m.toast = &note
		m.toastSeq++
		seq := m.toastSeq
		return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: seq}
		})
	}
	return nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpWidth := max(20, width-4)
	vpHeight := max(3, height-headerHeight-inputHeight-footerHeight-2)
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.input.SetWidth(vpWidth)
	m.renderer = newRenderer(vpWidth)
	m.refreshHistory()
}

func (m *Model) refreshHistory() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userRoleStyle.Render(" You "))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(m.viewport.Width).Render(msg.Content))
			b.WriteString("\n")
		default:
			b.WriteString(assistantRoleStyle.Render(" Assistant "))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
		}
	}
	return b.String()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	toast := m.renderToast()
	if !m.panelOpen {
		launcher := launcherStyle.Render("AI Assistant") + "  " + helpStyle.Render("ctrl+o open · ctrl+c quit")
		if toast != "" {
			return lipgloss.JoinVertical(lipgloss.Left, launcher, toast)
		}
		return launcher
	}

	header := headerStyle.Render(m.title) + subtitleStyle.Render(" "+m.subtitle+" ")

	status := helpStyle.Render("enter send · alt+enter newline · pgup/pgdn scroll · esc close")
	if m.busy {
		status = m.spinner.View() + busyStyle.Render(" Thinking...")
	}

	parts := []string{header, m.viewport.View(), status, m.input.View()}
	if toast != "" {
		parts = append(parts, toast)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	return toastStyle.Render(toastTitleStyle.Render(m.toast.Title) + "  " + m.toast.Description)
}
