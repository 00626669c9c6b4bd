package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/household/internal/importer/csvfile"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

type Service struct {
	csvImporter Importer
}

func NewService() *Service {
	return &Service{
		csvImporter: csvfile.NewParser(),
	}
}

// Import parses r in the given format. An empty format means CSV.
func (s *Service) Import(format Format, r io.Reader) ([]payment.CreateParams, error) {
	var importer Importer

	switch format {
	case FormatCSV, "":
		importer = s.csvImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return importer.Parse(r)
}
