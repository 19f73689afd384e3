// Package studio is the interactive terminal front end: a Single tab that
// speaks one text and a Several tab that speaks one file per line, both in
// the voice of a reference sample on disk.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/storage"
	"github.com/bobarin/voiceclone/internal/synth"
)

type tab int

const (
	tabSingle tab = iota
	tabSeveral
)

var tabNames = [...]string{"Single", "Several"}

type field int

const (
	fieldText field = iota
	fieldReference
)

// Results of background work.
type (
	statusMsg struct {
		status engine.Status
		err    error
	}
	synthMsg struct {
		files []string
		err   error
	}
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	activeTab      = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.NormalBorder(), false, false, true, false)
	inactiveTab    = lipgloss.NewStyle().Faint(true).Padding(0, 2)
	loadedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	unloadedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	fileStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	labelStyle     = lipgloss.NewStyle().Faint(true)
	sectionSpacing = "\n\n"
)

// Model is the bubbletea model for the studio.
type Model struct {
	proc *synth.Processor

	tab   tab
	focus field
	texts [2]textarea.Model
	refs  [2]textinput.Model

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	status  engine.Status
	busy    string // what is running, empty when idle
	files   []string
	err     error
	message string
}

// New builds the studio around proc.
func New(proc *synth.Processor) Model {
	m := Model{
		proc:    proc,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:  proc.Status(),
	}

	placeholders := [2]string{
		"Text to speak...",
		"One line per file. Blank lines are skipped.",
	}
	for i := range m.texts {
		ta := textarea.New()
		ta.Placeholder = placeholders[i]
		ta.ShowLineNumbers = i == int(tabSeveral)
		ta.CharLimit = 0
		ta.SetWidth(80)
		ta.SetHeight(6)
		ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
		m.texts[i] = ta

		ti := textinput.New()
		ti.Placeholder = "path/to/reference.wav"
		ti.Prompt = "Reference: "
		ti.Width = 60
		m.refs[i] = ti
	}
	m.texts[tabSingle].Focus()

	return m
}

// Run starts the studio and blocks until the user quits or ctx is done.
func Run(ctx context.Context, proc *synth.Processor) error {
	p := tea.NewProgram(New(proc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := max(msg.Width-4, 20)
		for i := range m.texts {
			m.texts[i].SetWidth(width)
			m.refs[i].Width = width - len(m.refs[i].Prompt) - 1
		}
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case statusMsg:
		m.busy = ""
		m.status = msg.status
		m.err = msg.err
		if msg.err == nil {
			m.message = "Model " + string(msg.status)
		} else {
			m.message = ""
		}
		return m, nil

	case synthMsg:
		m.busy = ""
		m.status = m.proc.Status()
		m.err = msg.err
		if msg.err == nil {
			m.files = msg.files
			m.message = fmt.Sprintf("Generated %d file(s)", len(msg.files))
		} else {
			m.message = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.updateFocused(msg)
}

// handleKey processes the studio's own bindings; anything else goes to the
// focused input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Single):
		return m.switchTab(tabSingle), true

	case key.Matches(msg, m.keys.Several):
		return m.switchTab(tabSeveral), true

	case key.Matches(msg, m.keys.Focus):
		if m.focus == fieldText {
			return m.setFocus(fieldReference), true
		}
		return m.setFocus(fieldText), true

	case key.Matches(msg, m.keys.Load):
		return m.start("Loading model", m.loadCmd()), true

	case key.Matches(msg, m.keys.Unload):
		return m.start("Unloading model", m.unloadCmd()), true

	case key.Matches(msg, m.keys.Generate):
		if m.tab == tabSingle {
			return m.start("Generating", m.singleCmd()), true
		}
		return m.start("Generating", m.severalCmd()), true
	}
	return nil, false
}

// start marks the model busy and runs cmd. Requests are ignored while
// something is already running.
func (m *Model) start(label string, cmd tea.Cmd) tea.Cmd {
	if m.busy != "" {
		return nil
	}
	m.busy = label
	m.err = nil
	m.message = ""
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) switchTab(t tab) tea.Cmd {
	if m.tab == t {
		return nil
	}
	m.texts[m.tab].Blur()
	m.refs[m.tab].Blur()
	m.tab = t
	return m.setFocus(m.focus)
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	if f == fieldText {
		m.refs[m.tab].Blur()
		return m.texts[m.tab].Focus()
	}
	m.texts[m.tab].Blur()
	return m.refs[m.tab].Focus()
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == fieldText {
		m.texts[m.tab], cmd = m.texts[m.tab].Update(msg)
	} else {
		m.refs[m.tab], cmd = m.refs[m.tab].Update(msg)
	}
	return cmd
}

// Commands. Each captures what it needs so it can run off the UI goroutine.

func (m Model) loadCmd() tea.Cmd {
	proc := m.proc
	return func() tea.Msg {
		status, err := proc.Load(context.Background())
		return statusMsg{status: status, err: err}
	}
}

func (m Model) unloadCmd() tea.Cmd {
	proc := m.proc
	return func() tea.Msg {
		return statusMsg{status: proc.Unload(context.Background())}
	}
}

func (m Model) singleCmd() tea.Cmd {
	proc := m.proc
	text := m.texts[tabSingle].Value()
	refPath := strings.TrimSpace(m.refs[tabSingle].Value())
	return func() tea.Msg {
		artifact, err := proc.SynthesizeSingle(context.Background(), text, engine.ReferenceFromPath(refPath))
		if err != nil {
			return synthMsg{err: err}
		}
		return synthMsg{files: []string{artifact.Path}}
	}
}

func (m Model) severalCmd() tea.Cmd {
	proc := m.proc
	texts := synth.SplitLines(m.texts[tabSeveral].Value())
	refPath := strings.TrimSpace(m.refs[tabSeveral].Value())
	return func() tea.Msg {
		if len(texts) == 0 {
			return synthMsg{files: []string{}}
		}

		reference, err := storage.ReadReference(refPath)
		if err != nil {
			return synthMsg{err: fmt.Errorf("%w: %w", synth.ErrInvalidReference, err)}
		}

		artifacts, err := proc.SynthesizeBatch(context.Background(), texts, reference)
		if err != nil {
			return synthMsg{err: err}
		}
		return synthMsg{files: synth.Paths(artifacts)}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("voiceclone studio"))
	b.WriteString("  ")
	b.WriteString(m.statusView())
	b.WriteString(sectionSpacing)

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTab.Render(name)
		} else {
			tabs[i] = inactiveTab.Render(name)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
	b.WriteString(sectionSpacing)

	b.WriteString(m.texts[m.tab].View())
	b.WriteString("\n")
	b.WriteString(m.refs[m.tab].View())
	b.WriteString(sectionSpacing)

	switch {
	case m.busy != "":
		b.WriteString(m.spinner.View() + " " + m.busy + "...")
	case m.err != nil:
		b.WriteString(errorStyle.Render(describeError(m.err)))
	case m.message != "":
		b.WriteString(m.message)
	}

	if len(m.files) > 0 {
		b.WriteString(sectionSpacing)
		b.WriteString(labelStyle.Render("Files:"))
		for _, f := range m.files {
			b.WriteString("\n  " + fileStyle.Render(f))
		}
	}

	b.WriteString(sectionSpacing)
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) statusView() string {
	if m.status == engine.StatusLoaded {
		return loadedStyle.Render("● model loaded")
	}
	return unloadedStyle.Render("○ model unloaded")
}

// describeError turns processor errors into one line for the status area.
func describeError(err error) string {
	var itemErr *engine.ItemError
	switch {
	case errors.Is(err, synth.ErrEmptyText):
		return "Enter some text first."
	case errors.Is(err, synth.ErrInvalidReference):
		return "Reference voice unusable: " + err.Error()
	case errors.Is(err, engine.ErrConstruction):
		return "Model failed to load: " + err.Error()
	case errors.As(err, &itemErr):
		return fmt.Sprintf("Line %d failed: %v", itemErr.Index+1, itemErr.Err)
	default:
		return "Error: " + err.Error()
	}
}
