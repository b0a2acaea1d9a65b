package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grischamedia/gmean/internal/ean"
)

// Messages for async operations
type saveCompleteMsg struct {
	status ean.Status
	err    error
}

type panelEventMsg struct {
	event ean.Event
}

type watchEndedMsg struct {
	err error
}

// EditorConfig wires the editor to a part's panel
type EditorConfig struct {
	Panel     *ean.Panel
	Client    *ean.Client
	Cookies   ean.CookieSource
	Part      int
	PartName  string
	ServerURL string

	// EventsURL enables live updates when set (ws:// or wss://)
	EventsURL string
}

// EditorModel is the interactive EAN panel: one text field, a status line
// and the part's current EAN. It is used through a pointer so the widget's
// Input and StatusView adapters write into the live model.
type EditorModel struct {
	ctx    context.Context
	cancel context.CancelFunc

	widget *ean.Widget
	panel  *ean.Panel
	config EditorConfig

	input   textinput.Model
	spinner spinner.Model
	status  ean.Status
	lastErr error
	saving  bool
	notice  string

	events chan ean.Event
	ended  chan error

	help help.Model
	keys editorKeyMap

	width    int
	quitting bool
}

// editorInput adapts the text field to ean.Input
type editorInput struct{ m *EditorModel }

func (a editorInput) Value() string     { return a.m.input.Value() }
func (a editorInput) SetValue(v string) { a.m.input.SetValue(v) }

// editorStatus adapts the status line to ean.StatusView
type editorStatus struct{ m *EditorModel }

func (a editorStatus) SetStatus(s ean.Status) { a.m.status = s }

// NewEditorModel creates the editor. The text field starts with the panel's
// current EAN.
func NewEditorModel(ctx context.Context, cfg EditorConfig) *EditorModel {
	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Placeholder = "EAN / GTIN"
	ti.CharLimit = 64
	ti.Width = 30
	ti.SetValue(cfg.Panel.Current())
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := &EditorModel{
		ctx:     ctx,
		cancel:  cancel,
		panel:   cfg.Panel,
		config:  cfg,
		input:   ti,
		spinner: s,
		help:    help.New(),
		keys:    newEditorKeyMap(),
		width:   GetTerminalWidth(),
	}
	m.widget = ean.NewWidget(cfg.Panel, editorInput{m}, editorStatus{m}, cfg.Cookies, cfg.Client)

	if cfg.EventsURL != "" {
		m.events = make(chan ean.Event, 8)
		m.ended = make(chan error, 1)
	}
	return m
}

// Status returns the status line's current content
func (m *EditorModel) Status() ean.Status {
	return m.status
}

// Value returns the text field's content
func (m *EditorModel) Value() string {
	return m.input.Value()
}

// Saving reports whether a save is in flight
func (m *EditorModel) Saving() bool {
	return m.saving
}

// Err returns the transport error of the last save, if any
func (m *EditorModel) Err() error {
	return m.lastErr
}

// Init implements tea.Model
func (m *EditorModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.events != nil {
		go m.watch()
		cmds = append(cmds, m.waitForEvent())
	}
	return tea.Batch(cmds...)
}

// watch feeds panel events into the model until the context ends
func (m *EditorModel) watch() {
	err := ean.Watch(m.ctx, m.config.EventsURL, m.config.Part, nil, func(ev ean.Event) {
		select {
		case m.events <- ev:
		case <-m.ctx.Done():
		}
	})
	m.ended <- err
}

func (m *EditorModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return panelEventMsg{event: ev}
		case err := <-m.ended:
			return watchEndedMsg{err: err}
		}
	}
}

// saveCmd runs the network half of a save off the UI goroutine
func saveCmd(ctx context.Context, w *ean.Widget, raw string) tea.Cmd {
	return func() tea.Msg {
		status, err := w.Submit(ctx, raw)
		return saveCompleteMsg{status: status, err: err}
	}
}

// Update implements tea.Model
func (m *EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = ClampWidth(msg.Width)
		m.help.Width = m.width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.cancel()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Save):
			return m, m.startSave()

		case key.Matches(msg, m.keys.Clear):
			m.widget.Clear()
			m.lastErr = nil
			return m, nil
		}

	case saveCompleteMsg:
		m.saving = false
		m.status = msg.status
		m.lastErr = msg.err
		if msg.err == nil && msg.status.Kind == ean.StatusSuccess {
			m.notice = ""
		}
		return m, nil

	case panelEventMsg:
		if msg.event.Type == ean.EventSaved && msg.event.EAN != m.panel.Current() {
			m.panel.SetCurrent(msg.event.EAN)
			m.notice = fmt.Sprintf("EAN von anderer Stelle geändert: %s", msg.event.EAN)
		}
		return m, m.waitForEvent()

	case watchEndedMsg:
		if msg.err != nil && m.ctx.Err() == nil {
			m.notice = "Live-Aktualisierung getrennt: " + ean.ShortMessage(msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startSave clears the status and submits the field. A save already in
// flight swallows the key press.
func (m *EditorModel) startSave() tea.Cmd {
	if m.saving {
		return nil
	}
	raw := m.input.Value()
	m.status = ean.NeutralStatus()
	m.lastErr = nil
	m.saving = true
	return tea.Batch(m.spinner.Tick, saveCmd(m.ctx, m.widget, raw))
}

// View implements tea.Model
func (m *EditorModel) View() string {
	if m.quitting {
		return ""
	}

	current := m.panel.Current()
	if current == "" {
		current = "–"
	}

	partLabel := fmt.Sprintf("#%d", m.config.Part)
	if m.config.PartName != "" {
		partLabel += " " + m.config.PartName
	}

	header := NewHeader("EAN / GTIN", "gm-ean edit",
		Param{Key: "Part", Value: partLabel},
		Param{Key: "Aktuell", Value: current},
		Param{Key: "Server", Value: m.config.ServerURL},
	).SetWidth(m.width).Render()

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(InputLabelStyle.Render("EAN:") + " " + m.input.View())
	b.WriteString("\n\n  ")

	if m.saving {
		b.WriteString(m.spinner.View() + " Speichere...")
	} else {
		b.WriteString(RenderStatus(m.status))
	}
	b.WriteString("\n")

	if m.lastErr != nil {
		for _, hint := range ean.TroubleshootingHint(m.lastErr) {
			b.WriteString(TroubleshootingItemStyle.Render("  • "+hint) + "\n")
		}
	}

	if m.notice != "" {
		b.WriteString(NoticeStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.help.View(m.keys)))
	b.WriteString("\n")

	return b.String()
}

// RunEditor runs the editor as a full-screen program until the user quits
func RunEditor(ctx context.Context, cfg EditorConfig) error {
	m := NewEditorModel(ctx, cfg)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
