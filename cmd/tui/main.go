package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ascendia/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
	analysisStore "github.com/MrJamesThe3rd/ascendia/internal/analysis/store"
	"github.com/MrJamesThe3rd/ascendia/internal/config"
	"github.com/MrJamesThe3rd/ascendia/internal/database"
	"github.com/MrJamesThe3rd/ascendia/internal/export"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	integrationStore "github.com/MrJamesThe3rd/ascendia/internal/integration/store"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/llm"
	"github.com/MrJamesThe3rd/ascendia/internal/secret"
)

type model struct {
	integrations *integration.Service
	analyses     *analysis.Service
	exports      *export.Service
	userID       string

	currentView View
	status      *integration.Status
	statusErr   error
	notice      string
	width       int
	height      int

	connectView      view.ConnectModel
	accountsView     view.AccountsModel
	transactionsView view.TransactionsModel
	analysisView     view.AnalysisModel
	savedView        view.SavedModel
	exportView       view.ExportModel
	beneficiaryView  view.BeneficiariesModel
}

type View int

const (
	ViewMenu View = iota
	ViewConnect
	ViewAccounts
	ViewTransactions
	ViewAnalysis
	ViewSaved
	ViewExport
	ViewBeneficiaries
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	box, err := secret.NewBox(cfg.Security.EncryptionKey)
	if err != nil {
		slog.Error("invalid encryption key", "error", err)
		os.Exit(1)
	}

	generator, err := llm.NewOpenRouter(llm.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		BaseURL: cfg.OpenRouter.BaseURL,
		Model:   cfg.OpenRouter.Model,
		Referer: cfg.App.BaseURL,
		Title:   cfg.App.Name,
		Timeout: cfg.OpenRouter.Timeout,
	})
	if err != nil {
		slog.Error("failed to configure openrouter", "error", err)
		os.Exit(1)
	}

	investecCfg := investec.Config{
		BaseURL:     cfg.Investec.Host,
		TokenURL:    cfg.Investec.TokenURL,
		Scopes:      cfg.Investec.Scopes,
		RefreshSkew: cfg.Investec.RefreshSkew,
		HTTPClient:  &http.Client{Timeout: cfg.Investec.Timeout},
	}

	var (
		integrationSvc = integration.NewService(integrationStore.New(db, box), investecCfg, nil)
		analysisSvc    = analysis.NewService(analysisStore.New(db), generator)
		exportSvc      = export.NewService(integrationSvc)
	)

	return model{
		integrations: integrationSvc,
		analyses:     analysisSvc,
		exports:      exportSvc,
		userID:       cfg.TUI.UserID,
		currentView:  ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return m.statusCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case statusMsg:
		m.status, m.statusErr = msg.status, msg.err
		return m, nil

	case disconnectedMsg:
		m.notice = "Disconnected from Investec."
		if msg.err != nil {
			m.notice = fmt.Sprintf("Disconnect failed: %v", msg.err)
		}

		return m, m.statusCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}

	case view.OpenAccountMsg:
		m.currentView = ViewTransactions
		m.transactionsView = view.NewTransactionsModel(m.integrations, m.userID, msg.Account)

		return m, tea.Batch(m.transactionsView.Init(), m.resize())

	case view.AnalyseMsg:
		m.currentView = ViewAnalysis
		m.analysisView = view.NewAnalysisModel(m.analyses, m.userID, analysis.AnalyseParams{
			Transactions: msg.Transactions,
			From:         msg.From,
			To:           msg.To,
		})

		return m, tea.Batch(m.analysisView.Init(), m.resize())

	case view.ExportMsg:
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exports, m.userID, msg)

		return m, m.exportView.Init()

	case view.BackMsg:
		switch m.currentView {
		case ViewAnalysis, ViewExport:
			m.currentView = ViewTransactions
		case ViewTransactions:
			m.currentView = ViewAccounts
		default:
			m.currentView = ViewMenu
			return m, m.statusCmd()
		}

		return m, nil
	}

	switch m.currentView {
	case ViewConnect:
		var newModel tea.Model
		newModel, cmd = m.connectView.Update(msg)
		m.connectView = newModel.(view.ConnectModel)
	case ViewAccounts:
		var newModel tea.Model
		newModel, cmd = m.accountsView.Update(msg)
		m.accountsView = newModel.(view.AccountsModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewAnalysis:
		var newModel tea.Model
		newModel, cmd = m.analysisView.Update(msg)
		m.analysisView = newModel.(view.AnalysisModel)
	case ViewSaved:
		var newModel tea.Model
		newModel, cmd = m.savedView.Update(msg)
		m.savedView = newModel.(view.SavedModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	case ViewBeneficiaries:
		var newModel tea.Model
		newModel, cmd = m.beneficiaryView.Update(msg)
		m.beneficiaryView = newModel.(view.BeneficiariesModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewConnect
		m.connectView = view.NewConnectModel(m.integrations, m.userID)

		return m, m.connectView.Init()
	case "2":
		m.currentView = ViewAccounts
		m.accountsView = view.NewAccountsModel(m.integrations, m.userID)

		return m, tea.Batch(m.accountsView.Init(), m.resize())
	case "3":
		m.currentView = ViewSaved
		m.savedView = view.NewSavedModel(m.analyses, m.userID)

		return m, tea.Batch(m.savedView.Init(), m.resize())
	case "4":
		m.currentView = ViewBeneficiaries
		m.beneficiaryView = view.NewBeneficiariesModel(m.integrations, m.userID)

		return m, tea.Batch(m.beneficiaryView.Init(), m.resize())
	case "d":
		return m, m.disconnectCmd()
	}

	return m, nil
}

// resize replays the last window size so a freshly built view can lay out.
func (m model) resize() tea.Cmd {
	if m.width == 0 {
		return nil
	}

	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	return func() tea.Msg { return size }
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Ascendia\n" + m.statusLine() + "\n\n" +
				"1. Connect Investec\n" +
				"2. Accounts & Transactions\n" +
				"3. Saved Analyses\n" +
				"4. Beneficiaries\n" +
				"d. Disconnect Investec\n\n" +
				"q. Quit" + m.noticeLine(),
		)
	case ViewConnect:
		return m.connectView.View()
	case ViewAccounts:
		return m.accountsView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	case ViewAnalysis:
		return m.analysisView.View()
	case ViewSaved:
		return m.savedView.View()
	case ViewExport:
		return m.exportView.View()
	case ViewBeneficiaries:
		return m.beneficiaryView.View()
	}

	return "Unknown View"
}

func (m model) statusLine() string {
	faint := lipgloss.NewStyle().Faint(true)

	switch {
	case m.statusErr != nil:
		return faint.Render(fmt.Sprintf("Investec: status unavailable (%v)", m.statusErr))
	case m.status == nil:
		return faint.Render("Investec: checking...")
	case !m.status.Connected:
		return faint.Render("Investec: not connected")
	case m.status.ExpiresAt != nil:
		return faint.Render("Investec: connected, token valid until " + m.status.ExpiresAt.Local().Format("15:04"))
	}

	return faint.Render("Investec: connected")
}

func (m model) noticeLine() string {
	if m.notice == "" {
		return ""
	}

	return "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(m.notice)
}

type statusMsg struct {
	status *integration.Status
	err    error
}

func (m model) statusCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.BankCtx()
		defer cancel()

		status, err := m.integrations.Status(ctx, m.userID)

		return statusMsg{status: status, err: err}
	}
}

type disconnectedMsg struct {
	err error
}

func (m model) disconnectCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.BankCtx()
		defer cancel()

		return disconnectedMsg{err: m.integrations.Disconnect(ctx, m.userID)}
	}
}

func main() {
	// Log to a file when asked; stderr would corrupt the alt screen.
	if path := os.Getenv("ASCENDIA_TUI_LOG"); path != "" {
		f, err := tea.LogToFile(path, "ascendia")
		if err == nil {
			defer f.Close()
			slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
		}
	} else {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}

	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run TUI: %v\n", err)
		os.Exit(1)
	}
}
