package tui

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	treeboard "github.com/ideamans/go-treeboard"
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
)

// settledMsg reports that a controller command finished. The model
// re-reads the controller state on every settlement.
type settledMsg struct {
	op  string
	err error
}

// stateTickMsg asks the model to re-read state changed by background sync
type stateTickMsg struct{}

// syncEvery paces the re-read of controller state
const syncEvery = time.Second

func tickState() tea.Cmd {
	return tea.Tick(syncEvery, func(time.Time) tea.Msg { return stateTickMsg{} })
}

// Model is the bubbletea model of the dashboard
type Model struct {
	ctx        context.Context
	controller *treeboard.Controller
	notifier   *ChannelNotifier
	openFile   func(path string) (io.ReadCloser, error)

	state treeboard.ViewState
	mode  inputMode
	busy  int

	search textinput.Model

	algorithm int
	column    int
	direction treeboard.Direction

	// open modal form
	labels []string
	fields []textinput.Model
	focus  int
	target int

	cursor int
	offset int

	status    string
	statusErr bool

	width  int
	height int
	help   help.Model
}

// New creates the dashboard model. notifier may be nil when the
// controller reports elsewhere.
func New(ctx context.Context, controller *treeboard.Controller, notifier *ChannelNotifier) Model {
	search := textinput.New()
	search.Placeholder = "search by key or value..."
	search.Prompt = "/ "
	search.CharLimit = 200
	search.Width = 40

	return Model{
		ctx:        ctx,
		controller: controller,
		notifier:   notifier,
		openFile:   func(path string) (io.ReadCloser, error) { return os.Open(path) },
		state:      controller.State(),
		search:     search,
		direction:  treeboard.Ascending,
		help:       help.New(),
	}
}

// Run starts the dashboard on the terminal and blocks until the user quits
func Run(ctx context.Context, controller *treeboard.Controller, notifier *ChannelNotifier) error {
	p := tea.NewProgram(New(ctx, controller, notifier), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run("load", m.controller.Initialize),
		waitForNotice(m.notifier),
		tickState(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case settledMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.sync()
		var perr *fs.PathError
		switch {
		case errors.As(msg.err, &perr):
			m.setStatus(perr.Error(), true)
		case treeboard.IsValidation(msg.err) && m.state.Modal == treeboard.ModalNone:
			// modal forms show validation inline
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil

	case noticeMsg:
		m.sync()
		if n, ok := msg.latest(); ok {
			m.setStatus(n.Message, n.Level == treeboard.NoticeError)
		}
		return m, waitForNotice(m.notifier)

	case stateTickMsg:
		m.sync()
		return m, tickState()

	case tea.KeyMsg:
		if m.state.Modal != treeboard.ModalNone {
			return m.updateModal(msg)
		}
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Refresh):
		return m.dispatch("refresh", m.controller.Refresh)

	case key.Matches(msg, keys.Algorithm):
		m.algorithm = (m.algorithm + 1) % len(treeboard.SortAlgorithms)

	case key.Matches(msg, keys.Column):
		if n := len(m.state.Columns); n > 0 {
			m.column = (m.column + 1) % n
		}

	case key.Matches(msg, keys.Direction):
		if m.direction == treeboard.Ascending {
			m.direction = treeboard.Descending
		} else {
			m.direction = treeboard.Ascending
		}

	case key.Matches(msg, keys.Sort):
		column := m.sortColumn()
		if column == "" {
			m.setStatus("No columns to sort by", true)
			return m, nil
		}
		alg, dir := treeboard.SortAlgorithms[m.algorithm], m.direction
		return m.dispatch("sort", func(ctx context.Context) error {
			return m.controller.Sort(ctx, alg, column, dir)
		})

	case key.Matches(msg, keys.Add):
		m.openModal(treeboard.ModalAdd)
	case key.Matches(msg, keys.Delete):
		m.openModal(treeboard.ModalDelete)
	case key.Matches(msg, keys.Convert):
		m.openModal(treeboard.ModalConvert)
	case key.Matches(msg, keys.Upload):
		m.openModal(treeboard.ModalUpload)

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.scroll()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.search.Blur()
		m.search.SetValue("")
		return m.dispatch("search", func(ctx context.Context) error {
			return m.controller.Search(ctx, "")
		})
	case tea.KeyEnter:
		m.mode = modeNormal
		m.search.Blur()
		query := m.search.Value()
		m.cursor, m.offset = 0, 0
		return m.dispatch("search", func(ctx context.Context) error {
			return m.controller.Search(ctx, query)
		})
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.controller.CloseModal()
		m.resetForm()
		m.sync()
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	}

	if m.state.Modal == treeboard.ModalConvert {
		switch msg.String() {
		case "left", "shift+tab", "h", "up", "k":
			m.target = (m.target + len(treeboard.ConvertTargets) - 1) % len(treeboard.ConvertTargets)
		case "right", "tab", "l", "down", "j":
			m.target = (m.target + 1) % len(treeboard.ConvertTargets)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return m.moveFocus(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.moveFocus(-1)
	}

	if len(m.fields) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	c := m.controller

	switch m.state.Modal {
	case treeboard.ModalAdd:
		values := make(map[string]interface{}, len(m.labels))
		for i, label := range m.labels {
			values[label] = m.fields[i].Value()
		}
		return m.dispatch("add", func(ctx context.Context) error {
			return c.Add(ctx, values)
		})

	case treeboard.ModalDelete:
		k := m.fields[0].Value()
		return m.dispatch("delete", func(ctx context.Context) error {
			return c.Delete(ctx, k)
		})

	case treeboard.ModalConvert:
		target := treeboard.ConvertTargets[m.target]
		return m.dispatch("convert", func(ctx context.Context) error {
			return c.Convert(ctx, target)
		})

	case treeboard.ModalUpload:
		path := strings.TrimSpace(m.fields[0].Value())
		open := m.openFile
		return m.dispatch("upload", func(ctx context.Context) error {
			if path == "" {
				return c.Upload(ctx, "", nil)
			}
			f, err := open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return c.Upload(ctx, filepath.Base(path), f)
		})
	}

	return m, nil
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.fields) == 0 {
		return m, nil
	}
	m.fields[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	return m, m.fields[m.focus].Focus()
}

// openModal asks the controller for the overlay and builds its form
func (m *Model) openModal(modal treeboard.Modal) {
	m.controller.OpenModal(modal)
	m.resetForm()

	switch modal {
	case treeboard.ModalAdd:
		m.labels = append([]string{}, m.state.Columns...)
		if len(m.labels) == 0 {
			m.labels = []string{treeboard.DefaultKeyField}
		}
	case treeboard.ModalDelete:
		m.labels = []string{"key"}
	case treeboard.ModalUpload:
		m.labels = []string{"CSV file"}
	}

	m.fields = make([]textinput.Model, len(m.labels))
	for i, label := range m.labels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = label
		ti.CharLimit = 500
		ti.Width = 40
		m.fields[i] = ti
	}
	if len(m.fields) > 0 {
		m.fields[0].Focus()
	}
	m.sync()
}

func (m *Model) resetForm() {
	m.labels = nil
	m.fields = nil
	m.focus = 0
	m.target = 0
}

// dispatch runs fn as a tea.Cmd and counts it as in flight
func (m Model) dispatch(op string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.busy++
	return m, m.run(op, fn)
}

func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return settledMsg{op: op, err: fn(ctx)}
	}
}

// sync re-reads the controller state and drops a form whose modal closed
func (m *Model) sync() {
	m.state = m.controller.State()
	if m.state.Modal == treeboard.ModalNone && m.fields != nil {
		m.resetForm()
	}
	if m.column >= len(m.state.Columns) {
		m.column = 0
	}
	if m.cursor >= len(m.state.Rows) {
		m.cursor = len(m.state.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

func (m *Model) scroll() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m Model) sortColumn() string {
	if m.column < len(m.state.Columns) {
		return m.state.Columns[m.column]
	}
	return ""
}
