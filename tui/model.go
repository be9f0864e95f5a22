// Package tui renders the media control as a terminal button.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/use-agent/vidopen/control"
)

// doubleClickWindow is the longest gap between two clicks that still
// counts as a double-click.
const doubleClickWindow = 400 * time.Millisecond

type stateMsg struct {
	saved bool
}

type gestureDoneMsg struct {
	saved bool
	err   error
}

// Model is the bubbletea model for the control button.
//
//	enter, space     click
//	alt+enter, e     alt-click (edit selector)
//	d                double-click (clear selector)
//	q, ctrl+c        quit
//
// Two clicks within doubleClickWindow also count as a double-click.
// Gestures run one at a time; keys are ignored while one is in flight
// except to answer its prompt or dismiss its alert.
type Model struct {
	ctx context.Context
	ctl *control.Control
	now func() time.Time

	saved     bool
	busy      bool
	status    string
	lastClick time.Time

	input  textinput.Model
	prompt *promptRequest
	alert  *notifyRequest
}

// New creates the model. ctx bounds every gesture.
func New(ctx context.Context, ctl *control.Control) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 2048
	ti.Width = 60

	return Model{
		ctx:   ctx,
		ctl:   ctl,
		now:   time.Now,
		input: ti,
	}
}

func (m Model) Init() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return stateMsg{saved: ctl.Saved(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.saved = msg.saved
		return m, nil

	case gestureDoneMsg:
		m.busy = false
		m.saved = msg.saved
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case promptRequest:
		m.prompt = &msg
		m.input.SetValue(msg.initial)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case notifyRequest:
		m.alert = &msg
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.release()
		return m, tea.Quit
	}

	if m.alert != nil {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			close(m.alert.done)
			m.alert = nil
		}
		return m, nil
	}

	if m.prompt != nil {
		switch msg.Type {
		case tea.KeyEnter:
			m.answer(promptReply{value: m.input.Value(), ok: true})
			return m, nil
		case tea.KeyEsc:
			m.answer(promptReply{})
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", " ", "space":
		now := m.now()
		if !m.lastClick.IsZero() && now.Sub(m.lastClick) <= doubleClickWindow {
			m.lastClick = time.Time{}
			return m.start(m.ctl.DoubleClick)
		}
		m.lastClick = now
		return m.start(func(ctx context.Context) error {
			return m.ctl.Click(ctx, control.Modifiers{})
		})
	case "alt+enter", "e":
		return m.start(func(ctx context.Context) error {
			return m.ctl.Click(ctx, control.Modifiers{Alt: true})
		})
	case "d":
		return m.start(m.ctl.DoubleClick)
	}
	return m, nil
}

// start runs a gesture off the UI goroutine.
func (m Model) start(gesture func(context.Context) error) (tea.Model, tea.Cmd) {
	m.busy = true
	ctx, ctl := m.ctx, m.ctl
	return m, func() tea.Msg {
		err := gesture(ctx)
		return gestureDoneMsg{saved: ctl.Saved(ctx), err: err}
	}
}

func (m *Model) answer(r promptReply) {
	m.prompt.reply <- r
	m.prompt = nil
	m.input.Blur()
	m.input.SetValue("")
}

// release unblocks a gesture waiting on the UI.
func (m *Model) release() {
	if m.prompt != nil {
		m.answer(promptReply{})
	}
	if m.alert != nil {
		close(m.alert.done)
		m.alert = nil
	}
}

func (m Model) View() string {
	var b strings.Builder

	label := control.LabelUnset
	if m.saved {
		label = control.LabelSaved + " ✓"
	}
	b.WriteString(buttonStyle.Background(buttonColor(m.saved)).Render(label))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(control.Hint))

	switch {
	case m.busy && m.prompt == nil && m.alert == nil:
		b.WriteString("\n" + statusStyle.Render("working..."))
	case m.status != "":
		b.WriteString("\n" + statusStyle.Render(m.status))
	}

	if m.prompt != nil {
		body := m.prompt.message + "\n" + m.input.View() + "\n" +
			helpStyle.Render("enter: OK • esc: cancel")
		b.WriteString("\n" + dialogStyle.Render(body))
	}
	if m.alert != nil {
		body := m.alert.message + "\n" + helpStyle.Render("enter: OK")
		b.WriteString("\n" + alertStyle.Render(body))
	}

	b.WriteString("\n")
	return b.String()
}
