package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	treeboard "github.com/ideamans/go-treeboard"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(1, 2)
)

// rows of chrome around the grid
const chromeHeight = 14

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tree Dashboard"))
	if m.busy > 0 {
		b.WriteString(labelStyle.Render("  loading..."))
	}
	b.WriteString("\n")
	b.WriteString(metricsLine(m.state))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(m.sortLine())
	b.WriteString("\n\n")

	if m.state.Modal != treeboard.ModalNone {
		b.WriteString(m.modalView())
	} else {
		b.WriteString(m.grid())
	}
	b.WriteString("\n")

	if m.status != "" {
		style := infoStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))

	return b.String()
}

// metricsLine renders the metrics panel. The search method is shown only
// while the last operation was a search.
func metricsLine(state treeboard.ViewState) string {
	parts := []string{
		field("Structure", string(state.Structure)),
		field("Algorithm", state.Metrics.LastAlgorithm.String()),
		field("Speed", state.Metrics.Speed()),
	}
	if state.Metrics.LastAlgorithm == treeboard.AlgorithmSearch {
		parts = append(parts, field("Search Method", state.Metrics.SearchMethod))
	}
	parts = append(parts,
		field("Rows", fmt.Sprintf("%d/%d", len(state.Rows), state.TotalRows)),
		field("Loaded in", fmt.Sprintf("%dms", state.ProcessingTimeMs)),
	)
	return strings.Join(parts, "  ")
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m Model) sortLine() string {
	column := m.sortColumn()
	if column == "" {
		column = "-"
	}
	return strings.Join([]string{
		field("Sort", treeboard.SortAlgorithms[m.algorithm].String()),
		field("by", column),
		field("order", string(m.direction)),
	}, "  ")
}

func (m Model) grid() string {
	if len(m.state.Columns) == 0 {
		return labelStyle.Render("No data loaded")
	}

	end := m.offset + m.visibleRows()
	if end > len(m.state.Rows) {
		end = len(m.state.Rows)
	}

	rows := make([][]string, 0, end-m.offset)
	for _, r := range m.state.Rows[m.offset:end] {
		rows = append(rows, r.Strings(m.state.Columns))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(m.state.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return selectedStyle
			}
			return cellStyle
		})

	return t.Render()
}

func (m Model) visibleRows() int {
	if m.height <= chromeHeight {
		return 20
	}
	return m.height - chromeHeight
}

func (m Model) modalView() string {
	var b strings.Builder

	switch m.state.Modal {
	case treeboard.ModalAdd:
		b.WriteString(titleStyle.Render("Add item"))
	case treeboard.ModalDelete:
		b.WriteString(titleStyle.Render("Delete item"))
	case treeboard.ModalConvert:
		b.WriteString(titleStyle.Render("Convert tree"))
	case treeboard.ModalUpload:
		b.WriteString(titleStyle.Render("Upload CSV"))
	}
	b.WriteString("\n\n")

	if m.state.Modal == treeboard.ModalConvert {
		for i, target := range treeboard.ConvertTargets {
			marker := "( )"
			if i == m.target {
				marker = "(•)"
			}
			fmt.Fprintf(&b, "%s %s\n", marker, target)
		}
	} else {
		for i, f := range m.fields {
			fmt.Fprintf(&b, "%s\n%s\n", labelStyle.Render(m.labels[i]), f.View())
		}
	}

	if m.state.Inline != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.state.Inline))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("enter submit • esc cancel"))

	return modalStyle.Render(b.String())
}
