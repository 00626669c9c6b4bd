package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

// historyLookups bounds the concurrent HasHistory queries of one refresh.
const historyLookups = 4

type paymentsState int

const (
	paymentsStateBrowse paymentsState = iota
	paymentsStateCreate
	paymentsStateDelete
)

// paymentForm holds the values bound to the new payment form. It lives on
// the heap so the form keeps writing to it while the model is copied.
type paymentForm struct {
	name      string
	amount    string
	dueDate   string
	period    string
	remaining string
	confirm   bool
}

type PaymentsModel struct {
	CommonModel
	paymentService *payment.Service
	now            func() time.Time

	state    paymentsState
	table    table.Model
	payments []*payment.Payment
	undoable []bool
	form     *huh.Form
	fields   *paymentForm

	filter  payment.ListFilter
	loading bool
	err     error
	status  string
}

func NewPaymentsModel(ctx context.Context, svc *payment.Service, now func() time.Time) PaymentsModel {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Name", Width: 28},
		{Title: "Amount", Width: 16},
		{Title: "Recurrence", Width: 18},
		{Title: "Status", Width: 18},
	}

	return PaymentsModel{
		CommonModel:    CommonModel{Ctx: ctx},
		paymentService: svc,
		now:            now,
		table:          newTable(columns),
		loading:        true,
	}
}

func (m PaymentsModel) Title() string { return "Payments" }

func (m PaymentsModel) ShortHelp() string {
	switch m.state {
	case paymentsStateCreate, paymentsStateDelete:
		return "Navigate form | Esc: cancel"
	}

	return "p: pay | u: undo | space: pause | n: new | x: delete | h: hide paid | tab: history | r: refresh | esc: back"
}

func (m PaymentsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PaymentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPaymentsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.payments = msg.payments
		m.undoable = msg.undoable
		m.refreshTable()

		return m, nil

	case paymentActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.done
		}

		m.state = paymentsStateBrowse
		m.form = nil
		m.fields = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	switch m.state {
	case paymentsStateCreate:
		return m.updateCreate(msg)
	case paymentsStateDelete:
		return m.updateDelete(msg)
	}

	return m.updateBrowse(msg)
}

func (m PaymentsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "tab":
			return m, OpenHistory
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "h":
			m.filter.HidePaid = !m.filter.HidePaid
			return m, m.loadCmd()
		case "p":
			return m, m.actionCmd(m.paymentService.MarkAsPaid, "Marked %s as paid.")
		case "u":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.undoable) || !m.undoable[idx] {
				m.status = "Nothing to undo."
				return m, nil
			}

			return m, m.actionCmd(m.paymentService.UndoLastPayment, "Reverted last payment of %s.")
		case " ":
			return m, m.actionCmd(m.paymentService.TogglePause, "Toggled pause on %s.")
		case "n":
			return m.enterCreate()
		case "x":
			return m.enterDelete()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PaymentsModel) selected() *payment.Payment {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.payments) {
		return nil
	}

	return m.payments[idx]
}

func (m PaymentsModel) enterCreate() (tea.Model, tea.Cmd) {
	m.fields = &paymentForm{
		dueDate: FormatDate(m.now()),
		period:  string(payment.PeriodMonthly),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.fields.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("1.500,00").
				Value(&m.fields.amount).
				Validate(func(s string) error {
					cents, err := money.Parse(s)
					if err != nil {
						return err
					}
					if cents <= 0 {
						return fmt.Errorf("amount must be positive")
					}
					return nil
				}),

			huh.NewInput().
				Key("due_date").
				Title("Due date").
				Placeholder("2006-01-02").
				Value(&m.fields.dueDate).
				Validate(func(s string) error {
					_, err := calendar.Parse(s)
					return err
				}),

			huh.NewSelect[string]().
				Key("period").
				Title("Recurrence").
				Options(huh.NewOptions(
					string(payment.PeriodOneTime),
					string(payment.PeriodMonthly),
					string(payment.PeriodLimited),
				)...).
				Value(&m.fields.period),

			huh.NewInput().
				Key("remaining").
				Title("Remaining occurrences").
				Description("Only for limited payments").
				Value(&m.fields.remaining).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := strconv.Atoi(strings.TrimSpace(s))
					return err
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = paymentsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m PaymentsModel) enterDelete() (tea.Model, tea.Cmd) {
	p := m.selected()
	if p == nil {
		return m, nil
	}

	m.fields = &paymentForm{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete %s and its history?", p.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fields.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = paymentsStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m PaymentsModel) cancelForm() (tea.Model, tea.Cmd) {
	m.state = paymentsStateBrowse
	m.form = nil
	m.fields = nil
	m.table.Focus()

	return m, nil
}

// advanceForm feeds msg to the active form and reports whether it completed.
func (m *PaymentsModel) advanceForm(msg tea.Msg) (bool, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	return m.form.State == huh.StateCompleted, cmd
}

func (m PaymentsModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.cancelForm()
	}

	done, cmd := m.advanceForm(msg)
	if !done {
		return m, cmd
	}

	params, err := m.fields.params()
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		return m.cancelForm()
	}

	return m, m.createCmd(params)
}

func (m PaymentsModel) updateDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.cancelForm()
	}

	done, cmd := m.advanceForm(msg)
	if !done {
		return m, cmd
	}

	if !m.fields.confirm {
		return m.cancelForm()
	}

	return m, m.actionCmd(func(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
		return nil, m.paymentService.Delete(ctx, id)
	}, "Deleted %s.")
}

func (f *paymentForm) params() (payment.CreateParams, error) {
	amount, err := money.Parse(f.amount)
	if err != nil {
		return payment.CreateParams{}, err
	}

	due, err := calendar.Parse(f.dueDate)
	if err != nil {
		return payment.CreateParams{}, err
	}

	period := payment.RecurrencePeriod(f.period)

	params := payment.CreateParams{
		Name:        strings.TrimSpace(f.name),
		Amount:      amount,
		DueDate:     due,
		IsRecurring: period != payment.PeriodOneTime,
	}

	if params.IsRecurring {
		params.RecurrencePeriod = &period
	}

	if raw := strings.TrimSpace(f.remaining); raw != "" && period == payment.PeriodLimited {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return payment.CreateParams{}, fmt.Errorf("remaining occurrences: %w", err)
		}

		params.RemainingOccurrences = &n
	}

	return params, nil
}

func (m PaymentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading payments...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorText(fmt.Sprintf("Error: %v", m.err)))
	}

	paidLabel := "shown"
	if m.filter.HidePaid {
		paidLabel = "hidden"
	}

	header := fmt.Sprintf("Payments | [h] Paid: %s | %d total", activeStyle(paidLabel), len(m.payments))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framed(m.table.View()),
	)

	if m.form != nil {
		title := "New Payment"
		if m.state == paymentsStateDelete {
			title = "Delete Payment"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + m.ShortHelp())
}

func (m *PaymentsModel) refreshTable() {
	today := m.now()

	rows := make([]table.Row, 0, len(m.payments))
	for i, p := range m.payments {
		status := FormatStatus(p, today)
		if m.undoable[i] {
			status += " ↺"
		}

		rows = append(rows, table.Row{
			FormatDate(p.DueDate),
			p.Name,
			FormatAmount(p.Amount),
			FormatRecurrence(p),
			status,
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Messages

type loadPaymentsMsg struct {
	payments []*payment.Payment
	undoable []bool
	err      error
}

func (m PaymentsModel) loadCmd() tea.Cmd {
	parent := m.Ctx
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx(parent)
		defer cancel()

		payments, err := m.paymentService.List(ctx, filter)
		if err != nil {
			return loadPaymentsMsg{err: err}
		}

		undoable := make([]bool, len(payments))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(historyLookups)

		for i, p := range payments {
			g.Go(func() error {
				undoable[i] = m.paymentService.HasHistory(gctx, p.ID)
				return gctx.Err()
			})
		}

		if err := g.Wait(); err != nil {
			return loadPaymentsMsg{err: fmt.Errorf("checking history: %w", err)}
		}

		return loadPaymentsMsg{payments: payments, undoable: undoable}
	}
}

type paymentActionMsg struct {
	done string
	err  error
}

func (m PaymentsModel) actionCmd(action func(context.Context, uuid.UUID) (*payment.Payment, error), done string) tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	parent := m.Ctx

	return func() tea.Msg {
		ctx, cancel := DbCtx(parent)
		defer cancel()

		if _, err := action(ctx, p.ID); err != nil {
			if errors.Is(err, payment.ErrNoHistory) {
				return paymentActionMsg{err: fmt.Errorf("%s has nothing to undo", p.Name)}
			}

			return paymentActionMsg{err: err}
		}

		return paymentActionMsg{done: fmt.Sprintf(done, p.Name)}
	}
}

func (m PaymentsModel) createCmd(params payment.CreateParams) tea.Cmd {
	parent := m.Ctx

	return func() tea.Msg {
		ctx, cancel := DbCtx(parent)
		defer cancel()

		p, err := m.paymentService.Create(ctx, params)
		if err != nil {
			return paymentActionMsg{err: err}
		}

		return paymentActionMsg{done: fmt.Sprintf("Created %s, due %s.", p.Name, FormatDate(p.DueDate))}
	}
}
