package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	enc "github.com/MrJamesThe3rd/household/internal/encoding"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

// dateLayouts are tried in order for the due date column.
var dateLayouts = []string{
	time.DateOnly,
	"02.01.2006.",
	"02.01.2006",
	"02-01-2006",
}

// Parser reads semicolon-separated payment sheets and produces create params.
// It finds the header row by matching column names against known profiles,
// so title or note rows above the header are ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]payment.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no payment header found: expected name;amount;due_date or naziv;iznos;rok")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows turns data rows into params. Blank rows are skipped; any other
// malformed row fails the whole file so nothing is half-imported.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]payment.CreateParams, error) {
	var params []payment.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1 // 1-based

		if isBlank(row) {
			continue
		}

		pp, err := parseRow(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params = append(params, pp)
	}

	return params, nil
}

func parseRow(p *Profile, cols colIndex, row []string) (payment.CreateParams, error) {
	var pp payment.CreateParams

	pp.Name = cell(row, cols, p.NameCol)
	if pp.Name == "" {
		return pp, fmt.Errorf("missing name")
	}

	amount, err := money.Parse(cell(row, cols, p.AmountCol))
	if err != nil {
		return pp, err
	}

	pp.Amount = amount

	due, err := parseDate(cell(row, cols, p.DueCol))
	if err != nil {
		return pp, err
	}

	pp.DueDate = due

	if desc := cell(row, cols, p.DescCol); desc != "" {
		pp.Description = &desc
	}

	raw := strings.ToLower(cell(row, cols, p.RecurrenceCol))
	if raw == "" {
		return pp, nil
	}

	period, ok := recurrenceAliases[raw]
	if !ok {
		return pp, fmt.Errorf("unknown recurrence %q", raw)
	}

	if period == string(payment.PeriodOneTime) {
		return pp, nil
	}

	pp.IsRecurring = true
	pp.RecurrencePeriod = new(payment.RecurrencePeriod(period))

	if s := cell(row, cols, p.RemainingCol); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return pp, fmt.Errorf("invalid remaining count %q", s)
		}

		pp.RemainingOccurrences = &n
	}

	return pp, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing due date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.DateOf(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}

// cell returns the trimmed value of the named column, or "" when the column
// is absent or the row is short.
func cell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
