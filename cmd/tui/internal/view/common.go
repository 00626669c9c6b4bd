package view

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views. Ctx carries the family session every
// service call runs under.
type CommonModel struct {
	Ctx    context.Context
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenHistoryMsg asks the root model to switch to the history view.
type OpenHistoryMsg struct{}

func OpenHistory() tea.Msg {
	return OpenHistoryMsg{}
}

// OpenPaymentsMsg asks the root model to switch to the payments view.
type OpenPaymentsMsg struct{}

func OpenPayments() tea.Msg {
	return OpenPaymentsMsg{}
}
