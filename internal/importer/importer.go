package importer

import (
	"io"

	"github.com/MrJamesThe3rd/household/internal/payment"
)

type Format string

const (
	FormatCSV Format = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]payment.CreateParams, error)
}
