// Package assistant holds the boundary operations that delegate language,
// vision, and audio understanding to the external generative model. Each
// operation builds a Spanish prompt, makes a single generateContent call, and
// degrades to an apology string, empty list, nil, or false on failure.
// Errors never propagate past this package.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jkrause/liftlog/internal/domain"
	"github.com/jkrause/liftlog/internal/genai"
)

// Apology strings returned at the boundary, mirroring the user-facing
// messages of the original application.
const (
	msgNoAPIKey       = "Error: API Key no encontrada."
	msgAnalysisFailed = "Ocurrió un error al analizar los datos."
	msgImageFailed    = "Hubo un error al procesar la imagen. Asegúrate de que sea clara."
	msgConsultFailed  = "Hubo un error al consultar el estado."
	msgGuideFailed    = "Hubo un error al procesar tu pregunta."
)

// Generator is the single-call interface the assistant depends on.
type Generator interface {
	GenerateContent(ctx context.Context, req genai.Request) (string, error)
	HasCredentials() bool
}

// Intent is the action a voice command resolves to.
type Intent string

const (
	IntentCreate Intent = "CREATE"
	IntentDelete Intent = "DELETE"
)

// VoiceCommand is the structured result of a dictated command: an intent plus
// the partial record fields that could be extracted from the audio.
type VoiceCommand struct {
	Intent Intent                   `json:"intent"`
	Data   domain.MaintenanceRecord `json:"data"`
}

// MalformedResponseError is returned internally when the model's JSON does
// not conform to the requested shape. It never escapes the package; callers
// see the operation's fallback value instead.
type MalformedResponseError struct {
	Op     string
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed model response: %s", e.Op, e.Reason)
}

// Assistant wraps the generate-content client with the six gateway
// operations. It is stateless; every call receives its own context snapshot.
type Assistant struct {
	client Generator
	now    func() time.Time
}

// New creates an Assistant backed by the given client.
func New(client Generator) *Assistant {
	return &Assistant{client: client, now: time.Now}
}

// cleanBase64 strips a data URI header ("data:audio/webm;base64,...") if
// present, returning the bare base64 payload.
func cleanBase64(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}

// AnalyzeMonth summarizes a month of maintenance data as Markdown. Any
// failure, including a missing credential, yields an apology string.
func (a *Assistant) AnalyzeMonth(ctx context.Context, records []domain.MaintenanceRecord, monthLabel, locationLabel string) string {
	if !a.client.HasCredentials() {
		return msgNoAPIKey
	}

	text, err := a.client.GenerateContent(ctx, genai.Request{
		Parts: []genai.Part{{Text: monthlyAnalysisPrompt(records, monthLabel, locationLabel)}},
	})
	if err != nil {
		slog.Warn("monthly analysis failed", "error", err)
		return msgAnalysisFailed
	}
	if text == "" {
		return "No se pudo generar el análisis."
	}
	return text
}

// AnalyzeEquipmentImage compares an equipment photo or floor plan against the
// month's completed maintenance and returns a Markdown gap report.
func (a *Assistant) AnalyzeEquipmentImage(ctx context.Context, imageBase64 string, records []domain.MaintenanceRecord) string {
	if !a.client.HasCredentials() {
		return msgNoAPIKey
	}

	text, err := a.client.GenerateContent(ctx, genai.Request{
		Parts: []genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: cleanBase64(imageBase64)}},
			{Text: equipmentImagePrompt(records)},
		},
	})
	if err != nil {
		slog.Warn("equipment image analysis failed", "error", err)
		return msgImageFailed
	}
	if text == "" {
		return "No se pudo analizar la imagen."
	}
	return text
}

// ExtractShiftSchedule pulls per-date shift assignments out of a schedule
// image or PDF. PDF inputs additionally get their text extracted locally and
// inlined, which helps with scanned spreadsheets exported as documents.
// Returns an empty list on any failure.
func (a *Assistant) ExtractShiftSchedule(ctx context.Context, fileBase64, mimeType string) []domain.Shift {
	if !a.client.HasCredentials() {
		return []domain.Shift{}
	}

	parts := []genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: cleanBase64(fileBase64)}},
		{Text: shiftSchedulePrompt()},
	}
	if mimeType == "application/pdf" {
		if text, err := extractPDFText(cleanBase64(fileBase64)); err != nil {
			slog.Warn("local pdf text extraction failed, sending document only", "error", err)
		} else if text != "" {
			parts = append(parts, genai.Part{Text: "Texto extraído del documento:\n" + text})
		}
	}

	raw, err := a.client.GenerateContent(ctx, genai.Request{
		Parts:            parts,
		ResponseMIMEType: "application/json",
		ResponseSchema:   shiftArraySchema(),
	})
	if err != nil {
		slog.Warn("shift schedule extraction failed", "error", err)
		return []domain.Shift{}
	}

	shifts, err := parseShifts(raw)
	if err != nil {
		slog.Warn("shift schedule extraction returned malformed data", "error", err)
		return []domain.Shift{}
	}
	return shifts
}

func parseShifts(raw string) ([]domain.Shift, error) {
	var shifts []domain.Shift
	if err := json.Unmarshal([]byte(raw), &shifts); err != nil {
		return nil, &MalformedResponseError{Op: "shift extraction", Raw: raw, Reason: err.Error()}
	}
	valid := shifts[:0]
	for _, sh := range shifts {
		if sh.Date == "" || sh.Name == "" {
			continue
		}
		valid = append(valid, sh)
	}
	return valid, nil
}

// ProcessVoiceCommand transcribes and interprets a dictated command, returning
// the detected intent and partial record fields, or nil on any failure.
func (a *Assistant) ProcessVoiceCommand(ctx context.Context, audioBase64 string) *VoiceCommand {
	if !a.client.HasCredentials() {
		return nil
	}

	today := a.now().UTC().Format("2006-01-02")
	raw, err := a.client.GenerateContent(ctx, genai.Request{
		Parts: []genai.Part{
			{InlineData: &genai.Blob{MIMEType: "audio/webm", Data: cleanBase64(audioBase64)}},
			{Text: voiceCommandPrompt(today)},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   voiceCommandSchema(),
	})
	if err != nil {
		slog.Warn("voice command processing failed", "error", err)
		return nil
	}

	cmd, err := parseVoiceCommand(raw)
	if err != nil {
		slog.Warn("voice command returned malformed data", "error", err)
		return nil
	}
	return cmd
}

func parseVoiceCommand(raw string) (*VoiceCommand, error) {
	var cmd VoiceCommand
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		return nil, &MalformedResponseError{Op: "voice command", Raw: raw, Reason: err.Error()}
	}
	if cmd.Intent != IntentCreate && cmd.Intent != IntentDelete {
		return nil, &MalformedResponseError{Op: "voice command", Raw: raw, Reason: fmt.Sprintf("unknown intent %q", cmd.Intent)}
	}
	if cmd.Data.Location != "" && !cmd.Data.Location.Valid() {
		return nil, &MalformedResponseError{Op: "voice command", Raw: raw, Reason: fmt.Sprintf("unknown location %q", cmd.Data.Location)}
	}
	if cmd.Data.EquipmentType != "" && !cmd.Data.EquipmentType.Valid() {
		return nil, &MalformedResponseError{Op: "voice command", Raw: raw, Reason: fmt.Sprintf("unknown equipment type %q", cmd.Data.EquipmentType)}
	}
	return &cmd, nil
}

// CheckVoiceConfirmation listens for a yes/no answer to a destructive action.
// Returns false on any failure.
func (a *Assistant) CheckVoiceConfirmation(ctx context.Context, audioBase64 string) bool {
	if !a.client.HasCredentials() {
		return false
	}

	raw, err := a.client.GenerateContent(ctx, genai.Request{
		Parts: []genai.Part{
			{InlineData: &genai.Blob{MIMEType: "audio/webm", Data: cleanBase64(audioBase64)}},
			{Text: voiceConfirmationPrompt()},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:       "object",
			Properties: map[string]genai.Schema{"confirmed": {Type: "boolean"}},
		},
	})
	if err != nil {
		slog.Warn("voice confirmation check failed", "error", err)
		return false
	}

	var result struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Warn("voice confirmation returned malformed data", "error", err, "response", raw)
		return false
	}
	return result.Confirmed
}

// ConsultPendingStatus answers a spoken question about pending equipment by
// comparing the master inventory with this month's completed maintenance.
// The answer is plain text meant to be read aloud.
func (a *Assistant) ConsultPendingStatus(ctx context.Context, audioBase64 string, records []domain.MaintenanceRecord) string {
	if !a.client.HasCredentials() {
		return msgNoAPIKey
	}

	text, err := a.client.GenerateContent(ctx, genai.Request{
		Parts: []genai.Part{
			{InlineData: &genai.Blob{MIMEType: "audio/webm", Data: cleanBase64(audioBase64)}},
			{Text: pendingStatusPrompt(records)},
		},
	})
	if err != nil {
		slog.Warn("pending status consult failed", "error", err)
		return msgConsultFailed
	}
	if text == "" {
		return "No pude analizar los pendientes."
	}
	return text
}

// AskGuide answers a how-do-I question about the application itself.
func (a *Assistant) AskGuide(ctx context.Context, query string) string {
	if !a.client.HasCredentials() {
		return msgNoAPIKey
	}

	text, err := a.client.GenerateContent(ctx, genai.Request{
		Parts:             []genai.Part{{Text: query}},
		SystemInstruction: guideSystemPrompt(),
	})
	if err != nil {
		slog.Warn("guide query failed", "error", err)
		return msgGuideFailed
	}
	if text == "" {
		return "Lo siento, no pude generar una respuesta."
	}
	return text
}

// --- response schemas ---

func shiftArraySchema() *genai.Schema {
	return &genai.Schema{
		Type: "array",
		Items: &genai.Schema{
			Type: "object",
			Properties: map[string]genai.Schema{
				"date":      {Type: "string"},
				"name":      {Type: "string"},
				"role":      {Type: "string"},
				"shiftType": {Type: "string"},
				"location":  {Type: "string"},
			},
			Required: []string{"date", "name"},
		},
	}
}

func voiceCommandSchema() *genai.Schema {
	return &genai.Schema{
		Type: "object",
		Properties: map[string]genai.Schema{
			"intent": {Type: "string", Enum: []string{"CREATE", "DELETE"}},
			"data": {
				Type: "object",
				Properties: map[string]genai.Schema{
					"technician":     {Type: "string"},
					"location":       {Type: "string", Enum: []string{"Marina", "Boulevard", "Ama"}},
					"sector":         {Type: "string"},
					"equipmentType":  {Type: "string", Enum: []string{"Ascensor", "Escalera Mecánica"}},
					"date":           {Type: "string"},
					"time":           {Type: "string"},
					"equipmentOrder": {Type: "string"},
					"notes":          {Type: "string"},
				},
			},
		},
		Required: []string{"intent", "data"},
	}
}
