package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/kud1/file-viewer/internal/export"
	"github.com/kud1/file-viewer/internal/history"
	"github.com/kud1/file-viewer/internal/registry"
	"github.com/kud1/file-viewer/internal/session"
)

// focus identifies which pane receives key input.
type focus int

const (
	focusFiles focus = iota
	focusEditor
	focusPrompt
)

// promptKind says what the path prompt is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptLoad
	promptExport
)

// Messages produced by background commands.
type (
	filesReloadedMsg struct{ files []*registry.LoadedFile }

	resultMsg struct {
		result *session.QueryResult
		sql    string
	}

	exportDoneMsg struct {
		path string
		rows int
	}

	statusMsg string

	opErrMsg struct{ err error }
)

type model struct {
	ctx    context.Context
	cfg    Config
	styles styles

	files  []*registry.LoadedFile
	cursor int

	results table.Model
	editor  textarea.Model
	prompt  textinput.Model

	focus     focus
	prompting promptKind

	// current is the last successful result. A failed query leaves it
	// untouched so the result pane never goes blank on an error.
	current *session.QueryResult

	// pendingDelete holds the file awaiting delete confirmation.
	pendingDelete string

	status  string
	lastErr string

	width  int
	height int
}

func newModel(ctx context.Context, cfg Config) model {
	editor := textarea.New()
	editor.Placeholder = "SELECT * FROM ..."
	editor.SetHeight(3)
	editor.ShowLineNumbers = false

	prompt := textinput.New()
	prompt.Placeholder = "path"

	results := table.New(table.WithFocused(false))

	return model{
		ctx:     ctx,
		cfg:     cfg,
		styles:  newStyles(termenv.ColorProfile()),
		results: results,
		editor:  editor,
		prompt:  prompt,
		focus:   focusFiles,
	}
}

func (m model) Init() tea.Cmd {
	return m.reloadFiles()
}

// reloadFiles refreshes the file list from the registry.
func (m model) reloadFiles() tea.Cmd {
	return func() tea.Msg {
		return filesReloadedMsg{files: m.cfg.Session.Files().List()}
	}
}

func (m model) previewFile(name string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.cfg.Session.Preview(m.ctx, name, m.cfg.PreviewLimit)
		if err != nil {
			return opErrMsg{err: err}
		}
		return resultMsg{result: result}
	}
}

func (m model) runQuery(sqlText string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.cfg.Session.Execute(m.ctx, sqlText)
		m.recordHistory(sqlText, result, err)
		if err != nil {
			return opErrMsg{err: err}
		}
		return resultMsg{result: result, sql: sqlText}
	}
}

func (m model) recordHistory(sqlText string, result *session.QueryResult, execErr error) {
	if m.cfg.History == nil {
		return
	}
	e := &history.Entry{
		ID:         uuid.NewString(),
		ExecutedAt: time.Now(),
		SQL:        sqlText,
		Status:     history.StatusOK,
	}
	if execErr != nil {
		e.Status = history.StatusError
		e.Error = execErr.Error()
	} else {
		e.RowCount = result.RowCount
		e.Duration = result.Elapsed
	}
	if err := m.cfg.History.Record(e); err != nil {
		m.cfg.Logger.Warn("failed to record history", "error", err)
	}
}

func (m model) loadPath(path string) tea.Cmd {
	return func() tea.Msg {
		lf, err := m.cfg.Session.Files().Register(m.ctx, path, "")
		if err != nil {
			return opErrMsg{err: err}
		}
		return statusMsg(fmt.Sprintf("Loaded %s as %q (%d rows)", lf.DisplayName, lf.Table, lf.RowCount))
	}
}

func (m model) dropFile(name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.cfg.Session.Files().Unregister(m.ctx, name); err != nil {
			return opErrMsg{err: err}
		}
		return statusMsg(fmt.Sprintf("Dropped %q", name))
	}
}

func (m model) refreshFile(name string) tea.Cmd {
	return func() tea.Msg {
		lf, err := m.cfg.Session.Files().Refresh(m.ctx, name)
		if err != nil {
			return opErrMsg{err: err}
		}
		return statusMsg(fmt.Sprintf("Reloaded %q (%d rows)", lf.Table, lf.RowCount))
	}
}

func (m model) exportResult(path string) tea.Cmd {
	result := m.current
	return func() tea.Msg {
		format := export.FormatCSV
		if strings.HasSuffix(strings.ToLower(path), ".json") ||
			strings.HasSuffix(strings.ToLower(path), ".jsonl") {
			format = export.FormatJSON
		}
		if err := m.cfg.Session.Export(result, format, path); err != nil {
			return opErrMsg{err: err}
		}
		return exportDoneMsg{path: path, rows: result.RowCount}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case filesReloadedMsg:
		m.files = msg.files
		if m.cursor >= len(m.files) {
			m.cursor = len(m.files) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case resultMsg:
		m.current = msg.result
		m.lastErr = ""
		if msg.sql != "" {
			m.status = fmt.Sprintf("OK (%s)", msg.result.Elapsed.Round(time.Millisecond))
		} else {
			m.status = ""
		}
		m.setResultRows(msg.result)
		return m, nil

	case exportDoneMsg:
		m.status = fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path)
		m.lastErr = ""
		return m, nil

	case statusMsg:
		m.status = string(msg)
		m.lastErr = ""
		return m, m.reloadFiles()

	case opErrMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.focus == focusPrompt {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "tab":
		if m.focus == focusFiles {
			m.focus = focusEditor
			m.editor.Focus()
		} else {
			m.focus = focusFiles
			m.editor.Blur()
		}
		return m, nil
	}

	if m.focus == focusEditor {
		return m.handleEditorKey(msg)
	}
	return m.handleFilesKey(msg)
}

func (m model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete != "" {
		name := m.pendingDelete
		m.pendingDelete = ""
		if msg.String() == "y" || msg.String() == "d" {
			return m, m.dropFile(name)
		}
		m.status = ""
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if f := m.selectedFile(); f != nil {
			return m, m.previewFile(f.DisplayName)
		}
		return m, nil

	case "a":
		m.focus = focusPrompt
		m.prompting = promptLoad
		m.prompt.Placeholder = "path to load"
		m.prompt.SetValue("")
		m.prompt.Focus()
		return m, textinput.Blink

	case "d":
		if f := m.selectedFile(); f != nil {
			m.pendingDelete = f.DisplayName
			m.status = fmt.Sprintf("Delete %q? press y to confirm", f.DisplayName)
			m.lastErr = ""
		}
		return m, nil

	case "r":
		if f := m.selectedFile(); f != nil {
			return m, m.refreshFile(f.DisplayName)
		}
		return m, nil

	case "e":
		if m.current == nil {
			m.lastErr = "no result to export; run a query or preview first"
			return m, nil
		}
		m.focus = focusPrompt
		m.prompting = promptExport
		m.prompt.Placeholder = "export path (.csv or .json)"
		m.prompt.SetValue("")
		m.prompt.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusFiles
		m.editor.Blur()
		return m, nil

	case tea.KeyCtrlR:
		sqlText := strings.TrimSpace(m.editor.Value())
		if sqlText == "" {
			return m, nil
		}
		return m, m.runQuery(strings.TrimSuffix(sqlText, ";"))
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusFiles
		m.prompting = promptNone
		m.prompt.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.prompting
		m.focus = focusFiles
		m.prompting = promptNone
		m.prompt.Blur()
		if value == "" {
			return m, nil
		}
		switch kind {
		case promptLoad:
			return m, m.loadPath(value)
		case promptExport:
			return m, m.exportResult(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *model) selectedFile() *registry.LoadedFile {
	if m.cursor < 0 || m.cursor >= len(m.files) {
		return nil
	}
	return m.files[m.cursor]
}

// setResultRows rebuilds the result table for a new result.
func (m *model) setResultRows(result *session.QueryResult) {
	cols := make([]table.Column, len(result.Columns))
	width := m.resultPaneWidth()
	colWidth := 16
	if len(result.Columns) > 0 {
		if w := width/len(result.Columns) - 1; w > colWidth {
			colWidth = w
		}
	}
	for i, c := range result.Columns {
		cols[i] = table.Column{Title: c, Width: colWidth}
	}

	rows := make([]table.Row, result.RowCount)
	for i := range result.Rows {
		values := result.Row(i)
		row := make(table.Row, len(values))
		for j, v := range values {
			row[j] = cellString(v)
		}
		rows[i] = row
	}

	m.results = table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(m.resultPaneHeight()),
	)
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func (m *model) layout() {
	m.editor.SetWidth(m.width - 4)
	m.prompt.Width = m.width - 8
	if m.current != nil {
		m.setResultRows(m.current)
	}
}

func (m *model) resultPaneWidth() int {
	w := m.width - filePaneWidth - 8
	if w < 20 {
		w = 20
	}
	return w
}

func (m *model) resultPaneHeight() int {
	h := m.height - 12
	if h < 5 {
		h = 5
	}
	return h
}

const filePaneWidth = 32

func (m model) View() string {
	header := m.styles.title.Render("FViewer")

	filePane := m.renderFilePane()
	resultPane := m.renderResultPane()
	body := lipgloss.JoinHorizontal(lipgloss.Top, filePane, resultPane)

	editorStyle := m.styles.pane
	if m.focus == focusEditor {
		editorStyle = m.styles.focused
	}
	editorPane := editorStyle.Width(m.width - 4).Render(m.editor.View())

	lines := []string{header, body, editorPane, m.renderStatus()}

	if m.focus == focusPrompt {
		label := "Load: "
		if m.prompting == promptExport {
			label = "Export: "
		}
		lines = append(lines, m.styles.promptText.Render(label)+m.prompt.View())
	}

	lines = append(lines, m.styles.help.Render(m.helpText()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) renderFilePane() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Files"))
	b.WriteString("\n")

	if len(m.files) == 0 {
		b.WriteString(m.styles.help.Render("none loaded\npress 'a' to add"))
	}
	for i, f := range m.files {
		line := fmt.Sprintf("%s (%d)", f.DisplayName, f.RowCount)
		style := m.styles.fileItem
		switch {
		case i == m.cursor && m.focus == focusFiles:
			line = "> " + line
			style = m.styles.selected
		default:
			line = "  " + line
		}
		if f.Stale {
			line += " *"
			style = m.styles.stale
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	paneStyle := m.styles.pane
	if m.focus == focusFiles {
		paneStyle = m.styles.focused
	}
	return paneStyle.Width(filePaneWidth).Height(m.resultPaneHeight() + 1).Render(b.String())
}

func (m model) renderResultPane() string {
	var content string
	if m.current == nil {
		content = m.styles.help.Render("select a file and press enter to preview")
	} else {
		content = m.results.View() + "\n" + m.styles.stats.Render(m.statsLine())
	}
	return m.styles.pane.Width(m.resultPaneWidth() + 2).Height(m.resultPaneHeight() + 1).Render(content)
}

// statsLine summarizes the current result.
func (m model) statsLine() string {
	r := m.current
	return fmt.Sprintf("%d row(s) | %d column(s) | %d displayed", r.TotalRows, len(r.Columns), r.RowCount)
}

func (m model) renderStatus() string {
	if m.lastErr != "" {
		return m.styles.errText.Render("Error: " + m.lastErr)
	}
	return m.styles.stats.Render(m.status)
}

func (m model) helpText() string {
	switch m.focus {
	case focusEditor:
		return "ctrl+r run · esc back · tab files · ctrl+c quit"
	case focusPrompt:
		return "enter confirm · esc cancel"
	default:
		return "↑/↓ select · enter preview · a add · d drop · r reload · e export · tab editor · q quit"
	}
}
