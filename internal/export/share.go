package export

import (
	"fmt"
	"net/url"

	"github.com/jkrause/liftlog/internal/domain"
)

func locationText(loc domain.Location) string {
	if loc == domain.LocationAll {
		return "Todas"
	}
	return string(loc)
}

func countByType(records []domain.MaintenanceRecord) (elevators, escalators int) {
	for _, r := range records {
		switch r.EquipmentType {
		case domain.EquipmentElevator:
			elevators++
		case domain.EquipmentEscalator:
			escalators++
		}
	}
	return
}

// WhatsAppLink builds a wa.me URL with a prefilled month summary.
func WhatsAppLink(records []domain.MaintenanceRecord, month string, loc domain.Location) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	elevators, escalators := countByType(records)

	text := fmt.Sprintf("*Reporte de Mantenciones - %s*\n\n"+
		"📍 Ubicación: %s\n"+
		"🛗 Ascensores: %d\n"+
		"🪜 Escaleras: %d\n"+
		"✅ Total Registros: %d\n\n"+
		"Enviado desde Gestor de Mantenciones.",
		month, locationText(loc), elevators, escalators, len(records))

	return "https://wa.me/?text=" + url.QueryEscape(text), nil
}

// EmailLink builds a mailto URL with the month summary as subject and body.
func EmailLink(records []domain.MaintenanceRecord, month string, loc domain.Location) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}

	subject := fmt.Sprintf("Reporte de Mantenciones %s", month)
	body := fmt.Sprintf("Adjunto resumen de mantenciones para el mes %s.\n\n"+
		"Ubicación: %s\n"+
		"Total Registros: %d",
		month, locationText(loc), len(records))

	return fmt.Sprintf("mailto:?subject=%s&body=%s", url.QueryEscape(subject), url.QueryEscape(body)), nil
}
