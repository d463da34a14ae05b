package tui

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	treeboard "github.com/ideamans/go-treeboard"
	"github.com/sirupsen/logrus"
)

type memorySheet struct {
	rows   []treeboard.Row
	schema []string
}

func (s *memorySheet) Load(ctx context.Context) ([]treeboard.Row, []string, error) {
	rows := make([]treeboard.Row, len(s.rows))
	for i, r := range s.rows {
		rows[i] = r.Copy()
	}
	return rows, append([]string{}, s.schema...), nil
}

func (s *memorySheet) Save(ctx context.Context, rows []treeboard.Row, schema []string) error {
	s.rows, s.schema = rows, schema
	return nil
}

func newTestModel(t *testing.T) (Model, *ChannelNotifier) {
	t.Helper()

	sheet := &memorySheet{schema: []string{"key", "title", "rating"}}
	for _, r := range []map[string]interface{}{
		{"key": "b1", "title": "Emma", "rating": int64(4)},
		{"key": "b2", "title": "Dune", "rating": 4.5},
		{"key": "b3", "title": "Ulysses", "rating": int64(3)},
	} {
		sheet.rows = append(sheet.rows, treeboard.NewRow(r, "key"))
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	notifier := NewChannelNotifier(8)
	controller := treeboard.New(treeboard.NewLocalBackend(sheet, "key"), &treeboard.Config{
		Logger:   logger,
		Notifier: notifier,
	})
	t.Cleanup(func() { controller.Close() })

	m := New(context.Background(), controller, notifier)
	m = settle(t, m, m.run("load", controller.Initialize))
	return m, notifier
}

// settle runs cmd synchronously and feeds settlement back into the model
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if _, ok := msg.(settledMsg); !ok {
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func rowKeys(rows []treeboard.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func TestModel_Load(t *testing.T) {
	m, _ := newTestModel(t)

	if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b1", "b2", "b3"}) {
		t.Errorf("rows = %v", got)
	}
	if m.busy != 0 {
		t.Errorf("busy = %d after settlement", m.busy)
	}

	view := m.View()
	for _, want := range []string{"Structure:", "AVL", "Emma", "Ulysses"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(view, "Search Method") {
		t.Error("View() shows the search method before any search")
	}
}

func TestModel_Search(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "/", "d", "u", "n", "e")
	if m.mode != modeSearch || m.search.Value() != "dune" {
		t.Fatalf("mode = %v, query = %q", m.mode, m.search.Value())
	}
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b2"}) {
		t.Errorf("rows = %v", got)
	}
	if !strings.Contains(metricsLine(m.state), "Search Method") {
		t.Errorf("metrics = %q, want search method", metricsLine(m.state))
	}

	m, _ = press(t, m, "/")
	m, cmd = press(t, m, "esc")
	m = settle(t, m, cmd)
	if len(m.state.Rows) != 3 || m.state.Metrics.LastAlgorithm != treeboard.AlgorithmNone {
		t.Errorf("after clearing: %v, %+v", rowKeys(m.state.Rows), m.state.Metrics)
	}
}

func TestModel_SortControls(t *testing.T) {
	m, _ := newTestModel(t)

	// key -> title -> rating, then descending, heap sort
	m, _ = press(t, m, "o", "o", "r", "g")
	if m.sortColumn() != "rating" || m.direction != treeboard.Descending {
		t.Fatalf("controls = %q %v", m.sortColumn(), m.direction)
	}
	m, cmd := press(t, m, "s")
	m = settle(t, m, cmd)

	if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b2", "b1", "b3"}) {
		t.Errorf("rows = %v", got)
	}
	if m.state.Metrics.LastAlgorithm != treeboard.AlgorithmHeapSort {
		t.Errorf("LastAlgorithm = %v", m.state.Metrics.LastAlgorithm)
	}
}

func TestModel_DeleteModal(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "d")
	if m.state.Modal != treeboard.ModalDelete {
		t.Fatalf("Modal = %v", m.state.Modal)
	}

	m, _ = press(t, m, "z", "z")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.state.Modal != treeboard.ModalDelete || m.state.Inline == "" {
		t.Errorf("unknown key: modal %v, inline %q", m.state.Modal, m.state.Inline)
	}
	if !strings.Contains(m.View(), m.state.Inline) {
		t.Error("View() does not show the inline message")
	}

	m, _ = press(t, m, "esc")
	if m.state.Modal != treeboard.ModalNone || m.fields != nil {
		t.Errorf("after cancel: modal %v, fields %d", m.state.Modal, len(m.fields))
	}

	m, _ = press(t, m, "d", "b", "1")
	m, cmd = press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.state.Modal != treeboard.ModalNone {
		t.Errorf("Modal = %v, want closed", m.state.Modal)
	}
	if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b2", "b3"}) {
		t.Errorf("rows = %v", got)
	}
}

func TestModel_AddModal(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "a")
	if !reflect.DeepEqual(m.labels, []string{"key", "title", "rating"}) {
		t.Fatalf("labels = %v", m.labels)
	}
	m, _ = press(t, m, "b", "4", "tab", "B", "e", "l", "o", "v", "e", "d", "tab", "5")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if m.state.Modal != treeboard.ModalNone || m.state.TotalRows != 4 {
		t.Errorf("after add: modal %v, %d rows", m.state.Modal, m.state.TotalRows)
	}
}

func TestModel_ConvertModal(t *testing.T) {
	m, notifier := newTestModel(t)

	m, _ = press(t, m, "c", "tab", "tab")
	if treeboard.ConvertTargets[m.target] != treeboard.StructureBTree {
		t.Fatalf("target = %v", treeboard.ConvertTargets[m.target])
	}
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if m.state.Structure != treeboard.StructureBTree || m.state.Modal != treeboard.ModalNone {
		t.Errorf("after convert: %v, modal %v", m.state.Structure, m.state.Modal)
	}

	next, _ := m.Update(waitForNotice(notifier)())
	m = next.(Model)
	if m.statusErr || !strings.HasPrefix(m.status, "Conversion successful") {
		t.Errorf("status = %q (error %v)", m.status, m.statusErr)
	}
}

func TestModel_UploadModal(t *testing.T) {
	m, notifier := newTestModel(t)

	m.openFile = func(path string) (io.ReadCloser, error) {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	m, _ = press(t, m, "u", "x", ".", "c", "s", "v")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.state.Modal != treeboard.ModalUpload || !m.statusErr {
		t.Errorf("missing file: modal %v, status %q", m.state.Modal, m.status)
	}

	m.openFile = func(path string) (io.ReadCloser, error) {
		if path != "x.csv" {
			return nil, errors.New("unexpected path " + path)
		}
		return io.NopCloser(strings.NewReader("key,title\nb9,Middlemarch\n")), nil
	}
	m, cmd = press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.state.Modal != treeboard.ModalNone || m.state.TotalRows != 4 {
		t.Errorf("after upload: modal %v, %d rows", m.state.Modal, m.state.TotalRows)
	}

	notices := notifier.Drain()
	if len(notices) != 1 || notices[0].Message != "Upload successful: Imported 1 records successfully" {
		t.Errorf("notices = %+v", notices)
	}
}

func TestModel_ValidationStatus(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(settledMsg{op: "sort", err: &treeboard.ValidationError{Message: "No data to sort"}})
	m = next.(Model)
	if !m.statusErr || m.status != "No data to sort" {
		t.Errorf("status = %q (error %v)", m.status, m.statusErr)
	}
	if !strings.Contains(m.View(), "No data to sort") {
		t.Error("View() does not show the validation error")
	}

	// an open modal shows the error inline instead
	m.setStatus("", false)
	m, _ = press(t, m, "d")
	next, _ = m.Update(settledMsg{op: "delete", err: &treeboard.ValidationError{Field: "key", Message: "Please enter a key to delete"}})
	m = next.(Model)
	if m.status != "" {
		t.Errorf("status = %q with modal open", m.status)
	}
}

func TestModel_BackgroundChanges(t *testing.T) {
	t.Run("tick re-reads state", func(t *testing.T) {
		m, _ := newTestModel(t)

		if err := m.controller.Search(context.Background(), "dune"); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		next, cmd := m.Update(stateTickMsg{})
		m = next.(Model)
		if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b2"}) {
			t.Errorf("rows = %v", got)
		}
		if cmd == nil {
			t.Error("tick not rescheduled")
		}
	})

	t.Run("notice re-reads state and keeps the error", func(t *testing.T) {
		m, notifier := newTestModel(t)

		if err := m.controller.Search(context.Background(), "emma"); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		notifier.Drain()
		notifier.Notify(treeboard.Notice{Level: treeboard.NoticeError, Message: "Sync failed"})
		notifier.Notify(treeboard.Notice{Message: "Item added successfully"})

		next, cmd := m.Update(waitForNotice(notifier)())
		m = next.(Model)
		if got := rowKeys(m.state.Rows); !reflect.DeepEqual(got, []string{"b1"}) {
			t.Errorf("rows = %v", got)
		}
		if !m.statusErr || m.status != "Sync failed" {
			t.Errorf("status = %q (error %v)", m.status, m.statusErr)
		}
		if cmd == nil {
			t.Error("notice wait not rescheduled")
		}
	})
}

func TestChannelNotifier(t *testing.T) {
	n := NewChannelNotifier(2)
	n.Notify(treeboard.Notice{Level: treeboard.NoticeError, Message: "e1"})
	n.Notify(treeboard.Notice{Message: "i1"})
	n.Notify(treeboard.Notice{Message: "i2"})
	n.Notify(treeboard.Notice{Message: "i3"})

	select {
	case <-n.Ready():
	default:
		t.Fatal("notifier not ready")
	}

	var got []string
	for _, notice := range n.Drain() {
		got = append(got, notice.Message)
	}
	if want := []string{"e1", "i3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Drain() = %v, want %v", got, want)
	}
	if rest := n.Drain(); len(rest) != 0 {
		t.Errorf("second Drain() = %+v", rest)
	}

	n.Notify(treeboard.Notice{Level: treeboard.NoticeError, Message: "e2"})
	n.Notify(treeboard.Notice{Level: treeboard.NoticeError, Message: "e3"})
	n.Notify(treeboard.Notice{Level: treeboard.NoticeError, Message: "e4"})
	msg := noticeMsg(n.Drain())
	if latest, ok := msg.latest(); !ok || latest.Message != "e4" || len(msg) != 2 {
		t.Errorf("latest = %+v of %d", latest, len(msg))
	}
}

func TestMetricsLine(t *testing.T) {
	tests := []struct {
		name    string
		metrics treeboard.Metrics
		want    []string
		notWant string
	}{
		{
			name:    "idle",
			metrics: treeboard.Metrics{SearchMethod: "None"},
			want:    []string{"None", "-"},
			notWant: "Search Method",
		},
		{
			name:    "sort",
			metrics: treeboard.Metrics{LastAlgorithm: treeboard.AlgorithmMergeSort, SpeedMs: 4, HasSpeed: true, SearchMethod: "None"},
			want:    []string{"Merge Sort", "4ms"},
			notWant: "Search Method",
		},
		{
			name:    "search",
			metrics: treeboard.Metrics{LastAlgorithm: treeboard.AlgorithmSearch, SpeedMs: 2, HasSpeed: true, SearchMethod: "Key Lookup"},
			want:    []string{"Search Method", "Key Lookup", "2ms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := metricsLine(treeboard.ViewState{Structure: treeboard.StructureAVL, Metrics: tt.metrics})
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("metricsLine() = %q, missing %q", line, w)
				}
			}
			if tt.notWant != "" && strings.Contains(line, tt.notWant) {
				t.Errorf("metricsLine() = %q, should not contain %q", line, tt.notWant)
			}
		})
	}
}
