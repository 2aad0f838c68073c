package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

type connectState int

const (
	connectStateForm connectState = iota
	connectStateConnecting
	connectStateResult
)

// ConnectModel collects Investec API credentials and tests them.
type ConnectModel struct {
	CommonModel
	svc    *integration.Service
	userID string

	state   connectState
	form    *huh.Form
	spinner spinner.Model
	result  string
	err     error

	// The form writes into fields, which is shared by every copy of the model.
	fields *connectFields
}

type connectFields struct {
	clientID     string
	clientSecret string
	apiKey       string
}

func NewConnectModel(svc *integration.Service, userID string) ConnectModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ConnectModel{
		svc:     svc,
		userID:  userID,
		spinner: s,
		fields:  &connectFields{},
	}
	m.form = m.buildForm()

	return m
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}

		return nil
	}
}

func (m *ConnectModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Client ID").
				Value(&m.fields.clientID).
				Validate(required("client id")),
			huh.NewInput().
				Title("Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.clientSecret).
				Validate(required("client secret")),
			huh.NewInput().
				Title("API Key").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.apiKey).
				Validate(required("api key")),
		).Description("Find these in Investec Online under Programmable Banking."),
	).WithWidth(60).WithShowHelp(false)
}

func (m ConnectModel) Title() string { return "Connect Investec" }

func (m ConnectModel) ShortHelp() string {
	switch m.state {
	case connectStateConnecting:
		return "Connecting..."
	case connectStateResult:
		return "Esc: back to menu"
	}

	return "Esc: back | Enter/Tab: navigate form"
}

func (m ConnectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ConnectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(connectResultMsg); ok {
		m.state = connectStateResult
		m.err = res.err

		if res.err == nil {
			m.result = "Connected to Investec."
			if res.status.ExpiresAt != nil {
				m.result += fmt.Sprintf(" Token valid until %s.", res.status.ExpiresAt.Local().Format("15:04"))
			}
		}

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	switch m.state {
	case connectStateForm:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State == huh.StateCompleted {
			m.state = connectStateConnecting
			return m, tea.Batch(m.spinner.Tick, m.connectCmd())
		}

		return m, cmd

	case connectStateConnecting:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ConnectModel) View() string {
	switch m.state {
	case connectStateConnecting:
		return padStyle.Render(m.spinner.View() + " Testing credentials with Investec...")
	case connectStateResult:
		if m.err != nil {
			msg := fmt.Sprintf("Connection failed: %v", m.err)
			if errors.Is(m.err, investec.ErrInvalidCredentials) {
				msg = "Investec rejected these credentials. Check them and try again."
			}

			return padStyle.Render(errorStyle.Render(msg) + "\n\n" + faintStyle.Render("Esc: back to menu"))
		}

		return padStyle.Render(activeStyle(m.result) + "\n\n" + faintStyle.Render("Esc: back to menu"))
	}

	return padStyle.Render(m.form.View())
}

type connectResultMsg struct {
	status *integration.Status
	err    error
}

func (m ConnectModel) connectCmd() tea.Cmd {
	creds := investec.Credentials{
		ClientID:     strings.TrimSpace(m.fields.clientID),
		ClientSecret: strings.TrimSpace(m.fields.clientSecret),
		APIKey:       strings.TrimSpace(m.fields.apiKey),
	}

	return func() tea.Msg {
		ctx, cancel := BankCtx()
		defer cancel()

		status, err := m.svc.Connect(ctx, m.userID, creds)

		return connectResultMsg{status: status, err: err}
	}
}
