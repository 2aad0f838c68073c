package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
)

type savedState int

const (
	savedStateList savedState = iota
	savedStateDetail
)

// SavedModel lists saved analyses, newest first, and shows one rendered.
type SavedModel struct {
	CommonModel
	svc    *analysis.Service
	userID string

	state    savedState
	table    table.Model
	viewport viewport.Model
	analyses []*analysis.Analysis
	loading  bool
	err      error
}

func NewSavedModel(svc *analysis.Service, userID string) SavedModel {
	return SavedModel{
		svc:    svc,
		userID: userID,
		table: newTable([]table.Column{
			{Title: "Saved", Width: 18},
			{Title: "From", Width: 12},
			{Title: "To", Width: 12},
			{Title: "Preview", Width: 50},
		}),
		viewport: viewport.New(100, 25),
		loading:  true,
	}
}

func (m SavedModel) Title() string { return "Saved Analyses" }

func (m SavedModel) ShortHelp() string {
	if m.state == savedStateDetail {
		return "Esc: back to list | ↑/↓: scroll"
	}

	return "Esc: back | Enter: open | r: refresh"
}

func (m SavedModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SavedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadSavedMsg:
		m.loading = false
		m.err = msg.err
		m.analyses = msg.analyses
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.state == savedStateDetail {
				m.state = savedStateList
				m.table.Focus()

				return m, nil
			}

			return m, Back
		case "r":
			if m.state == savedStateList {
				m.loading = true
				return m, m.loadCmd()
			}
		case "enter":
			idx := m.table.Cursor()
			if m.state == savedStateList && idx >= 0 && idx < len(m.analyses) {
				m.state = savedStateDetail
				m.table.Blur()
				m.viewport.SetContent(RenderMarkdown(m.analyses[idx].Content, m.viewport.Width-4))
				m.viewport.GotoTop()

				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.state == savedStateDetail {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

func (m SavedModel) View() string {
	if m.loading {
		return padStyle.Render("Loading saved analyses...")
	}

	if m.err != nil {
		return padStyle.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.state == savedStateDetail {
		a := m.analyses[m.table.Cursor()]
		header := activeStyle(fmt.Sprintf("Analysis %s to %s", FormatDate(a.From), FormatDate(a.To)))

		return padStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), faintStyle.Render(m.ShortHelp())))
	}

	if len(m.analyses) == 0 {
		return padStyle.Render("No saved analyses yet. Run one from an account's transactions.\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return padStyle.Render(lipgloss.JoinVertical(lipgloss.Left, tableView, faintStyle.Render(m.ShortHelp())))
}

func (m *SavedModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.analyses))
	for _, a := range m.analyses {
		rows = append(rows, table.Row{
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			FormatDate(a.From),
			FormatDate(a.To),
			preview(a.Content, 50),
		})
	}

	m.table.SetRows(rows)
}

// preview flattens markdown into a single line of at most n runes.
func preview(s string, n int) string {
	out := make([]rune, 0, n)

	for _, r := range s {
		switch r {
		case '\n', '\r', '\t':
			r = ' '
		case '*', '#':
			continue
		}

		if r == ' ' && (len(out) == 0 || out[len(out)-1] == ' ') {
			continue
		}

		if len(out) == n {
			out[n-1] = '…'
			break
		}

		out = append(out, r)
	}

	return string(out)
}

type loadSavedMsg struct {
	analyses []*analysis.Analysis
	err      error
}

func (m SavedModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		analyses, err := m.svc.List(ctx, m.userID)

		return loadSavedMsg{analyses: analyses, err: err}
	}
}
