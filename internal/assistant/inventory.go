package assistant

import "github.com/jkrause/liftlog/internal/domain"

// masterInventory lists every known equipment point per site, used for gap
// analysis against the month's completed maintenance. Elevators first, then
// escalators/other, per site.
var masterInventory = map[domain.Location][]string{
	domain.LocationMarina: {
		"Ripley", "París", "Torre Marina", "Ascensor Panorámico", "Cine",
		"Montacargas 14 Norte", "Montacargas 15 Norte",
		"Gimnasio", "Sector Patio Comida", "Sector Cruz Verde",
	},
	domain.LocationBoulevard: {
		"Torre Boulevard", "Estacionamientos Otis", "Pasarela Boulevard", "Montacarga Boulevard",
		"Primer Piso", "Segundo Piso", "Tercer Piso", "Pasarelas",
	},
	domain.LocationAma: {
		"Torre AMA", "Ascensores H&M", "Estacionamientos Torre Ama", "Ascensores Jumbo", "Montacargas de AMA",
		"Rampas", "Escaleras Mecánicas", "Sector Jumbo",
	},
}

// Inventory exposes the master equipment list for local gap reports.
func Inventory() map[domain.Location][]string {
	return masterInventory
}

// technicianRoster is the official staff list the voice assistant maps
// dictated names onto.
var technicianRoster = []string{
	"Cristian Guerrero",
	"Diego Vargas",
	"Francisca Chimuelo",
	"Italo Sanhueza",
	"Javier Silva",
	"Jonathan Labbé",
	"Jorge Letelier",
	"José Krause",
	"Julio Pérez",
	"Víctor González",
	"Víctor Jaramillo",
}
