package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/export"
)

type HistoryModel struct {
	CommonModel
	exportService *export.Service

	month   calendar.Month
	table   table.Model
	items   []export.Item
	loading bool
	err     error
}

func NewHistoryModel(ctx context.Context, svc *export.Service, now func() time.Time) HistoryModel {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Paid", Width: 18},
		{Title: "Name", Width: 28},
		{Title: "Amount", Width: 16},
	}

	return HistoryModel{
		CommonModel:   CommonModel{Ctx: ctx},
		exportService: svc,
		month:         calendar.MonthOf(now()),
		table:         newTable(columns),
		loading:       true,
	}
}

func (m HistoryModel) Title() string { return "History" }

func (m HistoryModel) ShortHelp() string {
	return "[: previous month | ]: next month | tab: payments | esc: back"
}

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadHistoryMsg:
		if msg.month != m.month {
			return m, nil
		}

		m.loading = false
		m.err = msg.err
		m.items = msg.items
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "tab":
			return m, OpenPayments
		case "[":
			m.month = m.month.Prev()
			m.loading = true

			return m, m.loadCmd()
		case "]":
			m.month = m.month.Next()
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *HistoryModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, item := range m.items {
		rows = append(rows, table.Row{
			FormatDate(item.Entry.DueDate),
			item.Entry.PaidDate.Format("2006-01-02 15:04"),
			item.PaymentName,
			FormatAmount(item.Entry.Amount),
		})
	}

	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m HistoryModel) total() int64 {
	var sum int64
	for _, item := range m.items {
		sum += item.Entry.Amount
	}

	return sum
}

func (m HistoryModel) View() string {
	header := fmt.Sprintf("History for %s", activeStyle(m.month.String()))

	var body string

	switch {
	case m.loading:
		body = "Loading history..."
	case m.err != nil:
		body = errorText(fmt.Sprintf("Error: %v", m.err))
	case len(m.items) == 0:
		body = lipgloss.NewStyle().Faint(true).Render("No payments settled this month.")
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			framed(m.table.View()),
			fmt.Sprintf("Total: %s (%d payments)", FormatAmount(m.total()), len(m.items)),
		)
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			body,
			"",
			m.ShortHelp(),
		),
	)
}

// Messages

type loadHistoryMsg struct {
	month calendar.Month
	items []export.Item
	err   error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	parent := m.Ctx
	month := m.month

	return func() tea.Msg {
		ctx, cancel := DbCtx(parent)
		defer cancel()

		items, err := m.exportService.Export(ctx, month)

		return loadHistoryMsg{month: month, items: items, err: err}
	}
}
