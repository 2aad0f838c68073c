package view

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

const bankTimeout = 30 * time.Second

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// BankCtx bounds a single call to the bank or the database.
func BankCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), bankTimeout)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	padStyle   = lipgloss.NewStyle().Padding(1)
)

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func reconnectNeeded(err error) bool {
	return errors.Is(err, integration.ErrNotConnected) || errors.Is(err, investec.ErrInvalidCredentials)
}
