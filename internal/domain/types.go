// Package domain defines the record shapes and closed enumerations shared by
// the storage, assistant, export, and API layers.
package domain

import "sort"

// Location is one of the fixed set of sites the company operates at.
type Location string

const (
	LocationMarina    Location = "Marina"
	LocationBoulevard Location = "Boulevard"
	LocationAma       Location = "Ama"

	// LocationAll is the wildcard used by filters, never stored on a record.
	LocationAll Location = "ALL"
)

// Locations lists every valid site in display order.
func Locations() []Location {
	return []Location{LocationMarina, LocationBoulevard, LocationAma}
}

// Valid reports whether l is one of the defined sites.
func (l Location) Valid() bool {
	switch l {
	case LocationMarina, LocationBoulevard, LocationAma:
		return true
	}
	return false
}

// EquipmentType is restricted to exactly two kinds of equipment.
type EquipmentType string

const (
	EquipmentElevator  EquipmentType = "Ascensor"
	EquipmentEscalator EquipmentType = "Escalera Mecánica"
)

// Valid reports whether t is one of the two defined equipment types.
func (t EquipmentType) Valid() bool {
	return t == EquipmentElevator || t == EquipmentEscalator
}

// MaintenanceRecord is one maintenance event tied to a date, location,
// equipment, and technician. IDs are generated client-side and immutable.
// No referential integrity is enforced between Location, Sector, and
// EquipmentOrder and any master equipment list; mismatches are tolerated.
type MaintenanceRecord struct {
	ID             string        `json:"id"`
	Technician     string        `json:"technician"`
	Date           string        `json:"date"` // YYYY-MM-DD
	Time           string        `json:"time"` // HH:MM
	Location       Location      `json:"location"`
	Sector         string        `json:"sector,omitempty"`
	EquipmentType  EquipmentType `json:"equipmentType"`
	EquipmentOrder string        `json:"equipmentOrder"` // e.g. "1, 2, 3"
	Notes          string        `json:"notes,omitempty"`
	AudioNote      string        `json:"audioNote,omitempty"` // data URI
}

// Month returns the YYYY-MM prefix of the record date.
func (r MaintenanceRecord) Month() string {
	if len(r.Date) < 7 {
		return r.Date
	}
	return r.Date[:7]
}

// SortChrono orders records by date then time-of-day, in place.
func SortChrono(records []MaintenanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].Time < records[j].Time
	})
}

// Shift assigns a person to a supervisory/technical role for a given date
// and day/night period.
type Shift struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`      // "Supervisor" or "Técnico"
	ShiftType string `json:"shiftType,omitempty"` // "Día" or "Noche"
	Location  string `json:"location,omitempty"`
}

// Key is the identity used for merge/overwrite: a newly saved shift for the
// same (date, shiftType) replaces the prior one.
func (s Shift) Key() string {
	return s.Date + "|" + s.ShiftType
}
