// Package export renders a filtered set of maintenance records into the
// formats the reports go out as: CSV for spreadsheets, PDF for printing, and
// prefilled WhatsApp/email links for quick sharing.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jkrause/liftlog/internal/domain"
)

// ErrNoRecords is returned when an export is requested for an empty set.
var ErrNoRecords = errors.New("no records to export")

var csvHeader = []string{"Fecha", "Hora", "Ubicación", "Tipo", "Equipo", "Técnico", "Notas"}

// utf8BOM makes Excel pick up UTF-8 so accented names render correctly.
const utf8BOM = "\uFEFF"

// WriteCSV streams the records as a spreadsheet-friendly CSV. Fields with
// commas or quotes, typically the equipment list and notes, are quoted and
// escaped by the writer so a round trip through any CSV reader preserves them.
func WriteCSV(w io.Writer, records []domain.MaintenanceRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date,
			r.Time,
			string(r.Location),
			string(r.EquipmentType),
			r.EquipmentOrder,
			r.Technician,
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVFileName names the download for a given month ("2024-07").
func CSVFileName(month string) string {
	return fmt.Sprintf("mantenciones_%s.csv", month)
}
