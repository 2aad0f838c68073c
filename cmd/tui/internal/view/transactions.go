package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/money"
)

// AnalyseMsg asks the root model to run an AI analysis of the loaded transactions.
type AnalyseMsg struct {
	Transactions []investec.Transaction
	From         time.Time
	To           time.Time
}

type txState int

const (
	txStateTimeframe txState = iota
	txStateList
)

type TransactionsModel struct {
	CommonModel
	svc     *integration.Service
	userID  string
	account investec.Account

	state           txState
	timeframePicker TimeframePicker
	table           table.Model
	txs             []investec.Transaction

	from    time.Time
	to      time.Time
	loading bool
	err     error
}

func NewTransactionsModel(svc *integration.Service, userID string, account investec.Account) TransactionsModel {
	return TransactionsModel{
		svc:             svc,
		userID:          userID,
		account:         account,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
		table: newTable([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Type", Width: 8},
			{Title: "Amount", Width: 14},
			{Title: "Description", Width: 44},
			{Title: "Balance", Width: 14},
		}),
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	if m.state == txStateTimeframe {
		return "Esc: back | Enter: select"
	}

	return "Esc: back | t: timeframe | a: analyse with AI | e: export CSV | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.from = msg.Start
		m.to = msg.End
		m.state = txStateList
		m.loading = true

		return m, m.loadCmd()

	case loadTxsMsg:
		m.loading = false
		m.err = msg.err
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	switch m.state {
	case txStateTimeframe:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd

	case txStateList:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				return m, Back
			case "t":
				m.state = txStateTimeframe
				m.timeframePicker.Reset()

				return m, nil
			case "r":
				m.loading = true
				return m, m.loadCmd()
			case "a":
				if len(m.txs) == 0 {
					return m, nil
				}

				analyse := AnalyseMsg{Transactions: m.txs, From: m.from, To: m.to}

				return m, func() tea.Msg { return analyse }
			case "e":
				exp := ExportMsg{AccountID: m.account.AccountID, From: m.from, To: m.to}

				return m, func() tea.Msg { return exp }
			}
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m TransactionsModel) View() string {
	header := fmt.Sprintf("%s  %s", activeStyle(m.account.AccountName), faintStyle.Render(m.account.AccountNumber))

	if m.state == txStateTimeframe {
		return padStyle.Render(header + "\n\n" + m.timeframePicker.View())
	}

	if m.loading {
		return padStyle.Render(header + "\n\nLoading transactions...")
	}

	if m.err != nil {
		return padStyle.Render(header + "\n\n" + errorStyle.Render(bankErrorText(m.err)) + "\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	var in, out decimal.Decimal

	for _, tx := range m.txs {
		if tx.Type == investec.TypeCredit {
			in = in.Add(tx.Amount)
		} else {
			out = out.Add(tx.SignedAmount().Abs())
		}
	}

	summary := fmt.Sprintf("%s to %s | %d transactions | In: %s | Out: %s",
		FormatDate(m.from), FormatDate(m.to), len(m.txs), money.FormatRand(in), money.FormatRand(out))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return padStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().PaddingBottom(1).Render(summary),
		tableView,
		faintStyle.Render(m.ShortHelp()),
	))
}

func (m *TransactionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			tx.PostingDate.String(),
			string(tx.Type),
			money.FormatRand(tx.SignedAmount()),
			tx.Description,
			money.FormatRand(tx.RunningBalance),
		})
	}

	m.table.SetRows(rows)
}

type loadTxsMsg struct {
	txs []investec.Transaction
	err error
}

func (m TransactionsModel) loadCmd() tea.Cmd {
	accountID := m.account.AccountID
	from, to := m.from, m.to

	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		client, err := m.svc.Client(ctx, m.userID)
		if err != nil {
			return loadTxsMsg{err: err}
		}

		txs, err := client.Transactions(ctx, accountID, investec.TransactionFilter{From: &from, To: &to})

		return loadTxsMsg{txs: txs, err: err}
	}
}
