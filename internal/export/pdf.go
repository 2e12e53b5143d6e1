package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jkrause/liftlog/internal/domain"
)

// Layout constants for the A4 portrait report. Column widths mirror the
// spreadsheet ordering: date, time, location, type, equipment, technician and
// whatever horizontal room is left goes to the notes.
const (
	pdfLeftMargin  = 14.0
	pdfPageWidth   = 210.0
	pdfTableTop    = 55.0
	pdfRowHeight   = 6.0
	pdfBreakMargin = 20.0
)

var pdfColWidths = []float64{22, 15, 25, 12, 35, 30, 43}

var pdfTableHeader = []string{"Fecha", "Hora", "Ubicación", "Tipo", "Equipo", "Técnico", "Notas"}

// WritePDF renders the monthly report: a brand-colored header band with the
// period and location, a one-line totals summary, and a chronological grid of
// every record. Core fonts only, so accented text goes through the cp1252
// translator.
func WritePDF(w io.Writer, records []domain.MaintenanceRecord, monthLabel, locationLabel string) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	sorted := make([]domain.MaintenanceRecord, len(records))
	copy(sorted, records)
	domain.SortChrono(sorted)

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(pdfLeftMargin, 10, pdfLeftMargin)
	doc.SetAutoPageBreak(false, pdfBreakMargin)
	doc.AliasNbPages("")

	generated := time.Now().Format("2/1/2006")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "", 8)
		doc.SetTextColor(150, 150, 150)
		doc.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb} - Generado el %s", doc.PageNo(), generated)), "", 0, "C", false, 0, "")
	})

	doc.AddPage()

	// Header band.
	doc.SetFillColor(2, 132, 199)
	doc.Rect(0, 0, pdfPageWidth, 40, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 22)
	doc.Text(pdfLeftMargin, 20, tr("Reporte de Mantenciones"))
	doc.SetFont("Helvetica", "", 12)
	doc.Text(pdfLeftMargin, 28, tr("Periodo: "+monthLabel))
	doc.Text(pdfLeftMargin, 34, tr("Ubicación: "+locationLabel))

	// Totals line.
	var elevators, escalators int
	for _, r := range sorted {
		switch r.EquipmentType {
		case domain.EquipmentElevator:
			elevators++
		case domain.EquipmentEscalator:
			escalators++
		}
	}
	doc.SetTextColor(50, 50, 50)
	doc.SetFont("Helvetica", "", 10)
	doc.Text(pdfLeftMargin, 48, tr(fmt.Sprintf("Resumen General: Total: %d | Ascensores: %d | Escaleras: %d", len(sorted), elevators, escalators)))

	doc.SetY(pdfTableTop)
	writeTableHead(doc, tr)

	bottom := 297.0 - pdfBreakMargin
	for i, r := range sorted {
		row := []string{
			r.Date,
			r.Time,
			string(r.Location),
			abbreviateType(r.EquipmentType),
			r.EquipmentOrder,
			r.Technician,
			notesOrDash(r.Notes),
		}

		doc.SetFont("Helvetica", "", 8)
		height := rowHeight(doc, row)
		if doc.GetY()+height > bottom {
			doc.AddPage()
			doc.SetY(pdfTableTop)
			writeTableHead(doc, tr)
			doc.SetFont("Helvetica", "", 8)
		}

		doc.SetTextColor(50, 50, 50)
		fill := i%2 == 1
		if fill {
			doc.SetFillColor(240, 249, 255)
		}
		writeTableRow(doc, tr, row, height, fill)
	}

	return doc.Output(w)
}

func writeTableHead(doc *fpdf.Fpdf, tr func(string) string) {
	doc.SetFont("Helvetica", "B", 8)
	doc.SetFillColor(2, 132, 199)
	doc.SetTextColor(255, 255, 255)
	for i, h := range pdfTableHeader {
		doc.CellFormat(pdfColWidths[i], pdfRowHeight, tr(h), "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)
}

// rowHeight sizes a row to fit the notes column, which is the only one that
// wraps. SplitText expects UTF-8 input, so the notes go in untranslated; the
// cp1252 translation happens only at draw time.
func rowHeight(doc *fpdf.Fpdf, row []string) float64 {
	lines := doc.SplitText(row[len(row)-1], pdfColWidths[len(row)-1])
	if len(lines) <= 1 {
		return pdfRowHeight
	}
	return float64(len(lines)) * 4.5
}

func writeTableRow(doc *fpdf.Fpdf, tr func(string) string, row []string, height float64, fill bool) {
	x, y := doc.GetXY()
	for i := 0; i < len(row)-1; i++ {
		doc.CellFormat(pdfColWidths[i], height, tr(row[i]), "1", 0, "L", fill, 0, "")
	}

	notesX := doc.GetX()
	notesW := pdfColWidths[len(row)-1]
	if fill {
		doc.Rect(notesX, y, notesW, height, "F")
	}
	doc.Rect(notesX, y, notesW, height, "D")
	doc.SetXY(notesX, y)
	doc.MultiCell(notesW, 4.5, tr(row[len(row)-1]), "", "L", false)

	doc.SetXY(x, y+height)
}

func abbreviateType(t domain.EquipmentType) string {
	if t == domain.EquipmentElevator {
		return "Asc."
	}
	return "Esc."
}

func notesOrDash(notes string) string {
	if notes == "" {
		return "-"
	}
	return notes
}

// PDFFileName names the download after the report period, with a timestamp to
// keep repeated exports from clobbering each other.
func PDFFileName(monthLabel string, now time.Time) string {
	return fmt.Sprintf("Reporte_Mantencion_%s_%d.pdf", strings.ReplaceAll(monthLabel, " ", "_"), now.UnixMilli())
}
