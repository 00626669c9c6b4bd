package csvfile

// Profile describes the header names of one payment sheet layout. Column
// names are matched case-insensitively and in any order.
type Profile struct {
	Name          string
	NameCol       string
	AmountCol     string
	DueCol        string
	RecurrenceCol string // optional
	RemainingCol  string // optional
	DescCol       string // optional
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.AmountCol, p.DueCol}
}

// profiles is the ordered list of sheet layouts to try during auto-detection.
var profiles = []Profile{
	{
		Name:          "english",
		NameCol:       "name",
		AmountCol:     "amount",
		DueCol:        "due_date",
		RecurrenceCol: "recurrence",
		RemainingCol:  "remaining",
		DescCol:       "description",
	},
	{
		Name:          "serbian",
		NameCol:       "naziv",
		AmountCol:     "iznos",
		DueCol:        "rok",
		RecurrenceCol: "ponavljanje",
		RemainingCol:  "preostalo",
		DescCol:       "opis",
	},
}

// recurrenceAliases maps the values accepted in the recurrence column to a
// period. Blank cells mean a one-time payment.
var recurrenceAliases = map[string]string{
	"one-time":    "one-time",
	"once":        "one-time",
	"jednokratno": "one-time",
	"monthly":     "monthly",
	"mesečno":     "monthly",
	"mesecno":     "monthly",
	"limited":     "limited",
	"installment": "limited",
	"rate":        "limited",
	"ograničeno":  "limited",
	"ograniceno":  "limited",
}
