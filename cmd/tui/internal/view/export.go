package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/export"
)

// ExportMsg asks the root model to export the listed range of an account.
type ExportMsg struct {
	AccountID string
	From      time.Time
	To        time.Time
}

type exportState int

const (
	exportStatePath exportState = iota
	exportStateExporting
	exportStateResult
)

type exportFields struct {
	path string
}

type ExportModel struct {
	CommonModel
	exportService *export.Service
	userID        string
	accountID     string

	state     exportState
	err       error
	startDate time.Time
	endDate   time.Time

	form    *huh.Form
	fields  *exportFields
	spinner spinner.Model
	result  *export.Result
}

func NewExportModel(svc *export.Service, userID string, msg ExportMsg) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService: svc,
		userID:        userID,
		accountID:     msg.AccountID,
		startDate:     msg.From,
		endDate:       msg.To,
		fields:        &exportFields{path: "./exports"},
		spinner:       s,
	}
	m.form = m.buildPathForm()

	return m
}

func (m ExportModel) Title() string { return "Export Transactions" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to transactions"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.fields.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.result = result.result

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.fields.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	rangeLine := faintStyle.Render(fmt.Sprintf("%s to %s", FormatDate(m.startDate), FormatDate(m.endDate)))

	switch m.state {
	case exportStatePath:
		return padStyle.Render(rangeLine + "\n\n" + m.form.View())

	case exportStateExporting:
		return padStyle.Render(fmt.Sprintf("%s Writing CSV statement...", m.spinner.View()))

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return padStyle.Render(
			errorStyle.Render(bankErrorText(m.err)) + "\n\n" + faintStyle.Render(m.ShortHelp()),
		)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return padStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			fmt.Sprintf("%d transactions written to %s", m.result.Count, m.result.Path),
			"",
			faintStyle.Render(m.ShortHelp()),
		),
	)
}

type exportResultMsg struct {
	result *export.Result
	err    error
}

const exportTimeout = time.Minute

func (m ExportModel) runExportCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		res, err := m.exportService.Export(ctx, m.userID, m.accountID, m.startDate, m.endDate, path)

		return exportResultMsg{result: res, err: err}
	}
}
