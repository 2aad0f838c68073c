package view

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

type BeneficiariesModel struct {
	CommonModel
	svc    *integration.Service
	userID string

	table   table.Model
	count   int
	loading bool
	err     error
}

func NewBeneficiariesModel(svc *integration.Service, userID string) BeneficiariesModel {
	return BeneficiariesModel{
		svc:    svc,
		userID: userID,
		table: newTable([]table.Column{
			{Title: "Name", Width: 28},
			{Title: "Bank", Width: 20},
			{Title: "Account", Width: 14},
			{Title: "Last Paid", Width: 12},
			{Title: "Amount", Width: 12},
		}),
		loading: true,
	}
}

func (m BeneficiariesModel) Title() string { return "Beneficiaries" }

func (m BeneficiariesModel) ShortHelp() string {
	return "Esc: back | r: refresh"
}

func (m BeneficiariesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BeneficiariesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBeneficiariesMsg:
		m.loading = false
		m.err = msg.err
		m.count = len(msg.beneficiaries)
		m.table.SetRows(beneficiaryRows(msg.beneficiaries))

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
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BeneficiariesModel) View() string {
	if m.loading {
		return padStyle.Render("Loading beneficiaries...")
	}

	if m.err != nil {
		return padStyle.Render(errorStyle.Render(bankErrorText(m.err)) + "\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	if m.count == 0 {
		return padStyle.Render("No beneficiaries found.\n\n" + faintStyle.Render(m.ShortHelp()))
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

func beneficiaryRows(bs []investec.Beneficiary) []table.Row {
	rows := make([]table.Row, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, table.Row{
			b.BeneficiaryName,
			b.Bank,
			b.AccountNumber,
			b.LastPaymentDate,
			b.LastPaymentAmount,
		})
	}

	return rows
}

type loadBeneficiariesMsg struct {
	beneficiaries []investec.Beneficiary
	err           error
}

func (m BeneficiariesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		client, err := m.svc.Client(ctx, m.userID)
		if err != nil {
			return loadBeneficiariesMsg{err: err}
		}

		bs, err := client.Beneficiaries(ctx)

		return loadBeneficiariesMsg{beneficiaries: bs, err: err}
	}
}
