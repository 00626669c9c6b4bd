package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/household/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/household/internal/config"
	"github.com/MrJamesThe3rd/household/internal/database"
	"github.com/MrJamesThe3rd/household/internal/export"
	"github.com/MrJamesThe3rd/household/internal/family"
	"github.com/MrJamesThe3rd/household/internal/importer"
	"github.com/MrJamesThe3rd/household/internal/payment"
	paymentStore "github.com/MrJamesThe3rd/household/internal/payment/store"
)

type model struct {
	ctx            context.Context
	now            func() time.Time
	paymentService *payment.Service
	importService  *importer.Service
	exportService  *export.Service

	currentView View

	paymentsView view.PaymentsModel
	historyView  view.HistoryModel
	importView   view.ImportModel
	exportView   view.ExportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewPayments View = 1
	ViewHistory  View = 2
	ViewImport   View = 3
	ViewExport   View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	familyID, ok, err := cfg.FamilyID()
	if err != nil {
		slog.Error("invalid family", "error", err)
		os.Exit(1)
	}

	session := family.NewSession()
	if ok {
		session.Set(uuid.Nil, &familyID)
	} else {
		slog.Warn("TUI_FAMILY_ID is not set, payments cannot be changed")
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.DB.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()

		if err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	ctx := family.NewContext(context.Background(), session)
	now := func() time.Time { return time.Now().In(loc) }

	paymentSvc := payment.NewService(paymentStore.New(db), payment.WithClock(now))
	impSvc := importer.NewService()
	expSvc := export.NewService(paymentSvc)

	return model{
		ctx:            ctx,
		now:            now,
		paymentService: paymentSvc,
		importService:  impSvc,
		exportService:  expSvc,
		currentView:    ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) openPayments() (tea.Model, tea.Cmd) {
	m.currentView = ViewPayments
	m.paymentsView = view.NewPaymentsModel(m.ctx, m.paymentService, m.now)

	return m, m.paymentsView.Init()
}

func (m model) openHistory() (tea.Model, tea.Cmd) {
	m.currentView = ViewHistory
	m.historyView = view.NewHistoryModel(m.ctx, m.exportService, m.now)

	return m, m.historyView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.openPayments()
			case "2":
				return m.openHistory()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.ctx, m.paymentService, m.importService)

				return m, m.importView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.ctx, m.exportService, m.now)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case view.OpenHistoryMsg:
		return m.openHistory()
	case view.OpenPaymentsMsg:
		return m.openPayments()
	}

	switch m.currentView {
	case ViewPayments:
		var newModel tea.Model
		newModel, cmd = m.paymentsView.Update(msg)
		m.paymentsView = newModel.(view.PaymentsModel)
	case ViewHistory:
		var newModel tea.Model
		newModel, cmd = m.historyView.Update(msg)
		m.historyView = newModel.(view.HistoryModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Household\n\n" +
				"1. Payments\n" +
				"2. History\n" +
				"3. Import Payments\n" +
				"4. Export History\n\n" +
				"q. Quit",
		)
	case ViewPayments:
		return m.paymentsView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewImport:
		return m.importView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
