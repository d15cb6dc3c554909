package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/render"
)

// editDoneMsg is sent when an edit replaced the session template.
type editDoneMsg struct{}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a compile
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for another reason.
type editErrorMsg struct{ err error }

const (
	templatePrompt = "➜ "
	continuePrompt = "… "
	ctrlPrompt     = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help             Print this cruft
  list             Print the session template source
  show [yaml|json] Describe the compiled session template
  render [FILE]    Render the template against a YAML or JSON document
  bind NAME VALUE  Bind NAME to a YAML value
  bindings         List the bindings of the naming context
  reset            Discard the session template
  edit             Edit the session template in external $EDITOR
  clear            Clear screen
  quit             Exit REPL

Usage:
  Type a directive call to add it to the session template
  A line that opens a block continues until the block is closed
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between template and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeTemplate inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// savedInput is the input line of a mode while the other mode is active.
type savedInput struct {
	text   string
	cursor int
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	saved        [2]savedInput // indexed by inputMode
}

// Run starts an interactive session compiling templates with c. A non-empty
// source is loaded as the initial session template. History is kept in
// cacheDir, or only in memory if cacheDir is empty.
func Run(
	ctx context.Context,
	c *compiler.Compiler,
	source string,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_source", source != ""),
	)

	s := newSession(c, logger)

	if source != "" {
		if err := s.load(ctx, source); err != nil {
			return err
		}

		logger.TraceContext(ctx, "repl template loaded",
			slog.Int("key_count", s.tpl.Len()))
	}

	var historyPath string
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", log.Err(err))
	}

	logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()))

	p := tea.NewProgram(newModel(ctx, s, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(templatePrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeTemplate,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(templatePrompt) - 2

		return m, nil

	case editDoneMsg:
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("key_count", m.session.tpl.Len()))
		m.setPrompt()

		return m, tea.Println(resultStyle.Render("template updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(m.idleHint()))

	case !m.tabActive && m.hintFor(input, m.input.Position()) != "":
		b.WriteString(m.hintFor(input, m.input.Position()))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

// idleHint returns the hint shown below an empty input line.
func (m model) idleHint() string {
	switch {
	case m.mode == modeCtrl:
		return "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
	case m.session.pending != "":
		return "Statement continues until its block is closed"
	default:
		return "Type a directive call or press Esc for commands"
	}
}

// setPrompt sets the prompt for the current mode and session state.
func (m *model) setPrompt() {
	switch {
	case m.mode == modeCtrl:
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	case m.session.pending != "":
		m.input.Prompt = promptStyle.Render(continuePrompt)
	default:
		m.input.Prompt = promptStyle.Render(templatePrompt)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && m.session.pending == "" {
			m.quitting = true

			return m, tea.Quit
		}

		// Abandon the current line and any unfinished statement.
		m.input.SetValue("")
		m.session.pending = ""
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.setPrompt()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1, false), nil

	case tea.KeyDown:
		return m.historyMove(1, false), nil

	case tea.KeyShiftUp:
		return m.historyMove(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyMove(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.mode == modeTemplate {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeTemplate), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks out of tab-cycling, keeping the candidate.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step through the current matches,
// starting at the first (or last) candidate. A sole candidate is completed
// immediately.
func (m model) cycle(step int) model {
	switch len(m.matches) {
	case 0:
		return m

	case 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	n := len(m.matches)

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true and the typed word already equals the sole
// candidate, the completion is accepted. Deletions and cursor movement pass
// false so editing never completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" && m.session.pending == "" {
		return m, nil
	}

	m.saved = [2]savedInput{}
	m.input.SetValue("")
	m.matches = nil

	if input != "" {
		_ = m.history.Add(input, m.mode)
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(m.ctxFunc(), "repl command",
			slog.String("input", input))

		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl statement",
		slog.String("input", input))

	prompt := templatePrompt
	if m.session.pending != "" {
		prompt = continuePrompt
	}

	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(input))

	changed, complete, err := m.session.enter(m.ctxFunc(), input)
	m.setPrompt()

	switch {
	case err != nil:
		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render("error: "+err.Error())))

	case !complete:
		return m, echo

	case len(changed) == 0:
		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("(no change)")))
	}

	lines := make([]string, 0, len(changed))
	for _, item := range changed {
		lines = append(lines, fmt.Sprintf("%v: %s", item.Key, flow(item.Value)))
	}

	return m, tea.Sequence(echo,
		tea.Println(resultStyle.Render(strings.Join(lines, "\n"))))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))
	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl exec command",
		slog.String("command", name),
		slog.String("args", rest),
	)

	result := func(s string, err error) (model, tea.Cmd) {
		if err != nil {
			return m, tea.Sequence(echo,
				tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		return m, tea.Sequence(echo, tea.Println(resultStyle.Render(s)))
	}

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		if m.session.source == "" {
			return m, tea.Sequence(echo, tea.Println(hintStyle.Render("(empty template)")))
		}

		return result(m.session.format(ctx, 2))

	case "s", "show":
		format := render.FormatYAML
		if rest != "" {
			f, err := render.ParseFormat(rest)
			if err != nil {
				return result("", err)
			}

			format = f
		}

		return result(m.session.describe(ctx, format))

	case "r", "render":
		return result(m.session.render(ctx, rest))

	case "b", "bind":
		key, value, _ := strings.Cut(rest, " ")
		if key == "" {
			return result("", errBindUsage)
		}

		if err := m.session.bind(ctx, key, strings.TrimSpace(value)); err != nil {
			return result("", err)
		}

		v, _ := m.session.compiler.Binding(key)

		return result(fmt.Sprintf("%s: %s", key, flow(v)), nil)

	case "bindings":
		var lines []string
		for _, item := range m.session.bindings() {
			lines = append(lines, fmt.Sprintf("%v: %s", item.Key, flow(item.Value)))
		}

		return result(strings.Join(lines, "\n"), nil)

	case "reset":
		m.session.reset()
		m.setPrompt()

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("template discarded")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + name + " (try 'help')"),
		)
	}
}

var errBindUsage = errors.New("usage: bind NAME VALUE")

// edit suspends the REPL and runs the edit loop in the user's editor.
func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case !cmd.changed:
			return editCancelledMsg{}
		default:
			return editDoneMsg{}
		}
	})
}

// historyMove moves step entries through history, switching to the mode of
// the entry reached. If sameMode is set, entries of the other mode are
// skipped. Moving past the newest entry clears the input.
func (m model) historyMove(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// switchToMode switches to mode, saving the input of the current mode and
// restoring that of the new one.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = savedInput{m.input.Value(), m.input.Position()}
	m.mode = mode
	m.setPrompt()
	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.tabActive = false
	refreshMatches(&m, false)

	return m
}

// flow formats v as single-line YAML.
func flow(v any) string {
	data, err := yaml.MarshalWithOptions(v, yaml.Flow(true))
	if err != nil {
		return fmt.Sprint(v)
	}

	return strings.TrimSpace(string(data))
}
