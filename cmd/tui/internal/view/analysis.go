package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
)

// The LLM call can take up to two minutes.
const analysisTimeout = 150 * time.Second

type analysisState int

const (
	analysisStateRunning analysisState = iota
	analysisStateResult
)

type AnalysisModel struct {
	CommonModel
	svc    *analysis.Service
	userID string
	params analysis.AnalyseParams

	state    analysisState
	spinner  spinner.Model
	viewport viewport.Model
	content  string
	saved    bool
	status   string
	err      error
}

func NewAnalysisModel(svc *analysis.Service, userID string, params analysis.AnalyseParams) AnalysisModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return AnalysisModel{
		svc:      svc,
		userID:   userID,
		params:   params,
		spinner:  s,
		viewport: viewport.New(100, 25),
	}
}

func (m AnalysisModel) Title() string { return "AI Analysis" }

func (m AnalysisModel) ShortHelp() string {
	if m.state == analysisStateRunning {
		return "Analysing..."
	}

	if m.err != nil || m.saved {
		return "Esc: back"
	}

	return "Esc: back | s: save | ↑/↓: scroll"
}

func (m AnalysisModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.analyseCmd())
}

func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisResultMsg:
		m.state = analysisStateResult
		m.err = msg.err
		m.content = msg.content

		if msg.err == nil {
			m.viewport.SetContent(RenderMarkdown(msg.content, m.viewport.Width-4))
		}

		return m, nil

	case analysisSavedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error saving: %v", msg.err))
			return m, nil
		}

		m.saved = true
		m.status = activeStyle("Analysis saved.")

		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8

		if m.content != "" {
			m.viewport.SetContent(RenderMarkdown(m.content, m.viewport.Width-4))
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "s":
			if m.state == analysisStateResult && m.err == nil && !m.saved {
				return m, m.saveCmd()
			}
		}
	}

	var cmd tea.Cmd
	if m.state == analysisStateRunning {
		m.spinner, cmd = m.spinner.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}

	return m, cmd
}

func (m AnalysisModel) View() string {
	header := fmt.Sprintf("Spending analysis %s to %s (%d transactions)",
		FormatDate(m.params.From), FormatDate(m.params.To), len(m.params.Transactions))

	if m.state == analysisStateRunning {
		return padStyle.Render(header + "\n\n" + m.spinner.View() + " Asking the assistant, this can take a minute...")
	}

	if m.err != nil {
		text := fmt.Sprintf("Analysis failed: %v", m.err)
		if errors.Is(m.err, analysis.ErrNoTransactions) {
			text = "There are no transactions in this period to analyse."
		}

		return padStyle.Render(header + "\n\n" + errorStyle.Render(text) + "\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	parts := []string{activeStyle(header), m.viewport.View()}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	parts = append(parts, faintStyle.Render(m.ShortHelp()))

	return padStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

type analysisResultMsg struct {
	content string
	err     error
}

func (m AnalysisModel) analyseCmd() tea.Cmd {
	params := m.params

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		content, err := m.svc.Analyse(ctx, params)

		return analysisResultMsg{content: content, err: err}
	}
}

type analysisSavedMsg struct {
	err error
}

func (m AnalysisModel) saveCmd() tea.Cmd {
	params := analysis.SaveParams{
		UserID:  m.userID,
		Content: m.content,
		From:    m.params.From,
		To:      m.params.To,
	}

	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		_, err := m.svc.Save(ctx, params)

		return analysisSavedMsg{err: err}
	}
}
