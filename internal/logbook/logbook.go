// Package logbook implements the read-side presentation logic over the record
// collection: month and location filtering, free-text search, summary counts,
// and the fuzzy lookup behind voice-driven deletion.
package logbook

import (
	"fmt"
	"strings"

	"github.com/jkrause/liftlog/internal/domain"
)

// Filter narrows the collection to a working set. Month is "YYYY-MM" and is
// always applied. Location "ALL" matches everything. Search is a
// case-insensitive substring over technician, equipment, location and notes.
// All three conditions must hold for a record to pass.
type Filter struct {
	Month    string
	Location domain.Location
	Search   string
}

// Apply returns the records matching every filter condition, preserving the
// input order.
func (f Filter) Apply(records []domain.MaintenanceRecord) []domain.MaintenanceRecord {
	term := strings.ToLower(f.Search)
	out := make([]domain.MaintenanceRecord, 0, len(records))
	for _, r := range records {
		if r.Month() != f.Month {
			continue
		}
		if f.Location != domain.LocationAll && r.Location != f.Location {
			continue
		}
		if term != "" && !matchesTerm(r, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesTerm(r domain.MaintenanceRecord, term string) bool {
	return strings.Contains(strings.ToLower(r.Technician), term) ||
		strings.Contains(strings.ToLower(r.EquipmentOrder), term) ||
		strings.Contains(strings.ToLower(string(r.Location)), term) ||
		strings.Contains(strings.ToLower(r.Notes), term)
}

// Stats are the per-set counts shown on the report header.
type Stats struct {
	Total      int
	Elevators  int
	Escalators int
}

// Summarize counts the set by equipment type.
func Summarize(records []domain.MaintenanceRecord) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch r.EquipmentType {
		case domain.EquipmentElevator:
			s.Elevators++
		case domain.EquipmentEscalator:
			s.Escalators++
		}
	}
	return s
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthLabel turns "2024-07" into the Spanish display form "julio 2024".
// Unparseable input is returned as-is.
func MonthLabel(month string) string {
	var year, m int
	if _, err := fmt.Sscanf(month, "%d-%d", &year, &m); err != nil || m < 1 || m > 12 {
		return month
	}
	return fmt.Sprintf("%s %d", spanishMonths[m-1], year)
}

// LocationLabel is the display form of a location filter for report headers.
func LocationLabel(loc domain.Location) string {
	if loc == domain.LocationAll {
		return "Todas las Ubicaciones"
	}
	return string(loc)
}

// FindDeleteTarget resolves a voice deletion request to a concrete record.
// The date must match exactly; the equipment reference is a case-insensitive
// substring match, so "torre" finds "Torre Marina". The first match in
// collection order wins. Returns nil when nothing matches or no equipment
// reference was given.
func FindDeleteTarget(records []domain.MaintenanceRecord, date, equipment string) *domain.MaintenanceRecord {
	target := strings.ToLower(equipment)
	if target == "" {
		return nil
	}
	for i := range records {
		if records[i].Date != date {
			continue
		}
		if strings.Contains(strings.ToLower(records[i].EquipmentOrder), target) {
			return &records[i]
		}
	}
	return nil
}
