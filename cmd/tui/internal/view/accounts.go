package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/money"
)

// OpenAccountMsg asks the root model to show an account's transactions.
type OpenAccountMsg struct {
	Account investec.Account
}

type accountRow struct {
	account investec.Account
	balance *investec.Balance
}

type AccountsModel struct {
	CommonModel
	svc    *integration.Service
	userID string

	table   table.Model
	rows    []accountRow
	loading bool
	err     error
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func NewAccountsModel(svc *integration.Service, userID string) AccountsModel {
	return AccountsModel{
		svc:    svc,
		userID: userID,
		table: newTable([]table.Column{
			{Title: "Account", Width: 14},
			{Title: "Name", Width: 24},
			{Title: "Product", Width: 24},
			{Title: "Current", Width: 16},
			{Title: "Available", Width: 16},
		}),
		loading: true,
	}
}

func (m AccountsModel) Title() string { return "Accounts" }

func (m AccountsModel) ShortHelp() string {
	return "Esc: back | Enter: transactions | r: refresh"
}

func (m AccountsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AccountsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadAccountsMsg:
		m.loading = false
		m.err = msg.err
		m.rows = msg.rows
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "enter":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.rows) {
				return m, nil
			}

			account := m.rows[idx].account

			return m, func() tea.Msg { return OpenAccountMsg{Account: account} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m AccountsModel) View() string {
	if m.loading {
		return padStyle.Render("Loading accounts...")
	}

	if m.err != nil {
		return padStyle.Render(errorStyle.Render(bankErrorText(m.err)) + "\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	if len(m.rows) == 0 {
		return padStyle.Render("No accounts found.\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return padStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		tableView,
		faintStyle.Render(m.ShortHelp()),
	))
}

func (m *AccountsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		current, available := "-", "-"
		if r.balance != nil {
			current = money.FormatRand(r.balance.CurrentBalance)
			available = money.FormatRand(r.balance.AvailableBalance)
		}

		rows = append(rows, table.Row{
			r.account.AccountNumber,
			r.account.AccountName,
			r.account.ProductName,
			current,
			available,
		})
	}

	m.table.SetRows(rows)
}

type loadAccountsMsg struct {
	rows []accountRow
	err  error
}

// loadCmd fetches the accounts and then each balance. A failed balance
// leaves that row blank rather than failing the whole screen.
func (m AccountsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		client, err := m.svc.Client(ctx, m.userID)
		if err != nil {
			return loadAccountsMsg{err: err}
		}

		accounts, err := client.Accounts(ctx)
		if err != nil {
			return loadAccountsMsg{err: err}
		}

		rows := make([]accountRow, len(accounts))
		for i, a := range accounts {
			rows[i].account = a

			if b, err := client.Balance(ctx, a.AccountID); err == nil {
				rows[i].balance = b
			}
		}

		return loadAccountsMsg{rows: rows}
	}
}

func bankErrorText(err error) string {
	if reconnectNeeded(err) {
		return "Your Investec session is no longer valid. Re-connect your account from the menu."
	}

	return fmt.Sprintf("Error: %v", err)
}
