package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkrause/liftlog/internal/domain"
)

// recordSummary is the token-trimmed projection of a record sent with the
// monthly analysis prompt.
type recordSummary struct {
	Dia      string `json:"dia"`
	Hora     string `json:"hora"`
	Tec      string `json:"tec"`
	Sector   string `json:"sector,omitempty"`
	Tipo     string `json:"tipo"`
	IDEquipo string `json:"id_equipo"`
}

func monthlyAnalysisPrompt(records []domain.MaintenanceRecord, monthLabel, locationLabel string) string {
	summary := make([]recordSummary, len(records))
	for i, r := range records {
		summary[i] = recordSummary{
			Dia:      r.Date,
			Hora:     r.Time,
			Tec:      r.Technician,
			Sector:   r.Sector,
			Tipo:     string(r.EquipmentType),
			IDEquipo: r.EquipmentOrder,
		}
	}
	data, _ := json.Marshal(summary)

	return fmt.Sprintf(`Analiza la siguiente lista de mantenciones realizadas en %s durante %s.
Responde en formato Markdown, sé breve y profesional.

Tus objetivos:
1. Resumir la cantidad total de mantenciones por tipo (Ascensor vs Escalera).
2. Identificar si hay algún técnico que haya realizado la mayoría de los trabajos.
3. Detectar si algún día específico hubo una carga de trabajo inusualmente alta.
4. Dar una conclusión breve sobre el estado del mantenimiento este mes.

Datos (JSON):
%s`, locationLabel, monthLabel, data)
}

func equipmentImagePrompt(records []domain.MaintenanceRecord) string {
	maintained := make([]string, len(records))
	for i, r := range records {
		sector := r.Sector
		if sector == "" {
			sector = "General"
		}
		maintained[i] = fmt.Sprintf("%s (%s - %s) - %s", r.EquipmentOrder, r.Location, sector, r.Date)
	}
	data, _ := json.Marshal(maintained)

	return fmt.Sprintf(`Actúa como un Supervisor de Mantenimiento experto.

Te estoy enviando una imagen que puede ser:
1. Una lista o planilla física de equipos.
2. Un plano del Mall (Marina, Boulevard o Ama).
3. Una foto de un sector con ascensores/escaleras.

Tu tarea es:
1. **Identificar** todos los equipos (ascensores/escaleras) que aparecen o se listan en la imagen.
2. **Comparar** esa lista visual con los registros de mantenimiento YA REALIZADOS este mes (lista provista abajo).
3. **Generar un reporte** que diga:
   - Qué equipos de la imagen YA tienen mantención (Status: OK).
   - Qué equipos de la imagen FALTAN por mantener (Status: PENDIENTE).

Lista de Mantenciones Realizadas (JSON):
%s

Formato de respuesta sugerido (Markdown):
- Resumen General
- Lista comparativa
- Alerta de equipos críticos faltantes (si los hay en la imagen).`, data)
}

func shiftSchedulePrompt() string {
	return `Analiza esta imagen o documento que contiene una planilla de turnos (work schedule).

Objetivo: Extraer Supervisores y Técnicos asignados por fecha, distinguiendo si es turno de DÍA o de NOCHE.

Instrucciones Avanzadas:
1. Busca fechas (convertir a YYYY-MM-DD).
2. Busca nombres de personas.
3. **Roles**: Si dice "Supervisor", "Sup", "Encargado", asígnalo como 'Supervisor'. Si no, 'Técnico'.
4. **Horario**:
   - Si la planilla tiene columnas o secciones que dicen "Noche", "Night", "22:00", "Turno B", marca 'shiftType' como 'Noche'.
   - Si es horario normal, "Día", "Mañana", marca 'shiftType' como 'Día'.
   - Si es Fin de Semana, asume 'Día' a menos que se especifique lo contrario.

Retorna JSON Array:
[
  { "date": "2024-12-17", "name": "Julio Pérez", "role": "Técnico", "shiftType": "Noche" },
  { "date": "2024-12-18", "name": "Eduardo Leal", "role": "Supervisor", "shiftType": "Día" }
]`
}

func voiceCommandPrompt(today string) string {
	return fmt.Sprintf(`Escucha este audio de un técnico de mantenimiento.

Fecha actual: %s

Tu tarea es determinar la INTENCIÓN del usuario:
1. **CREATE**: Si está dictando una nueva mantención (ej: "José revisó los ascensores 1 y 2 en el sector norte").
2. **DELETE**: Si quiere borrar o eliminar un registro (ej: "Borra la mantención de la Torre Marina", "Me equivoqué, elimina lo de hoy").

Extrae los datos en JSON.

Reglas para DELETE:
- Necesitamos saber QUÉ borrar. Extrae 'equipmentOrder', 'date' y 'location' para poder encontrar el registro.
- Si dice "hoy", usa la fecha actual.

Reglas para CREATE:
- Ubicación: 'Marina', 'Boulevard', 'Ama'.
- Sector: Intenta mapear a estos valores si suena parecido:
    - Marina: Ripley, París, Panorámico, Cine, Torre Marina, Montacargas, Gimnasio, Patio Comida, Cruz Verde.
    - Boulevard: Torre, Estacionamientos, Pasarela, Montacarga, Pisos (1,2,3).
    - Ama: Torre, H&M, Jumbo, Rampas, Escaleras.
  Si no, usa texto libre.
- Tipo: 'Ascensor', 'Escalera Mecánica'.
- Técnico: Mapea a uno de estos nombres oficiales si suena similar:
%s
- Equipo: Identificador o número. Soporta múltiples números (ej: "1, 2, 3").
  Si el usuario dice "Ascensor 1 y 2", equipmentOrder debe ser "1, 2".`, today, rosterBullets())
}

func rosterBullets() string {
	var sb strings.Builder
	for _, name := range technicianRoster {
		fmt.Fprintf(&sb, "   - %s\n", name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func voiceConfirmationPrompt() string {
	return `Escucha el audio. El usuario debe CONFIRMAR o CANCELAR una acción peligrosa (borrar).
- Si dice "Sí", "Confirmo", "Bórralo", "Dale", "Correcto": Retorna TRUE.
- Si dice "No", "Cancela", "Espera", "Me equivoqué", "No lo borres": Retorna FALSE.

Retorna JSON: { "confirmed": boolean }`
}

func pendingStatusPrompt(records []domain.MaintenanceRecord) string {
	type doneEntry struct {
		Loc string `json:"loc"`
		Sec string `json:"sec,omitempty"`
		Eq  string `json:"eq"`
	}
	done := make([]doneEntry, len(records))
	for i, r := range records {
		done[i] = doneEntry{Loc: string(r.Location), Sec: r.Sector, Eq: r.EquipmentOrder}
	}
	doneJSON, _ := json.Marshal(done)
	inventoryJSON, _ := json.Marshal(masterInventory)

	return fmt.Sprintf(`Eres un asistente de voz para una empresa de mantenimiento.

CONTEXTO (Inventario Total de Equipos):
%s

MANTENCIONES REALIZADAS ESTE MES (Lo que ya se hizo):
%s

INSTRUCCIÓN:
1. Escucha la pregunta del usuario en el audio.
2. Si pregunta "¿Qué falta?" o por una ubicación específica (ej: "¿Qué falta en Ama?"), compara el Inventario Total con las Mantenciones Realizadas.
3. Responde de forma **hablada y natural** (como si fueras una persona).
4. Sé conciso. No listes todo si falta mucho, resume (ej: "Faltan 3 equipos en Ama: la Torre y dos ascensores"). Si falta poco, nómbralos.
5. Si todo está listo, felicita al equipo.

Tu respuesta será leída en voz alta, así que no uses Markdown ni símbolos complejos, solo texto plano en español.`, inventoryJSON, doneJSON)
}

func guideSystemPrompt() string {
	return `Eres el asistente experto de la aplicación "Gestor de Mantenciones Verticales".

INFORMACIÓN DE LA APP:
- **Propósito**: Organizar mantenciones de ascensores y escaleras mecánicas.
- **Ubicaciones**: Marina, Boulevard, Ama.
- **Funcionalidades**:
  1. **Agregar Registro**: Se piden datos como Fecha, Hora, Técnico, Sector (Opcional), Ubicación, Equipo (Selección múltiple 1-22).
  2. **Asistente de Voz**: Permite dictar la mantención (ej: "José revisó los ascensores 1 y 2").
  3. **Vistas**: Calendario (visual) y Lista (tabla detallada).
  4. **Exportar**: Genera PDF o CSV (Excel), comparte por WhatsApp o Correo.
  5. **Análisis IA**: Busca patrones en los datos del mes.
  6. **Notas de Audio**: Se pueden grabar notas de voz dentro de cada registro.
  7. **Escanear Inventario**: Permite subir una foto (lista o plano) para comparar qué equipos faltan por mantener.
  8. **Carga de Turnos**: Sube foto o PDF y la IA detecta supervisores asignados por fecha.

Tu trabajo es responder preguntas del usuario sobre cómo usar la app de forma breve, amigable y en español.
Si te preguntan algo fuera del contexto de la app, indica cortésmente que solo sabes de mantenciones.`
}
