// Package api exposes the maintenance log over a local HTTP API and an MCP
// server. Every route except the health probe requires the shared bearer
// token.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jkrause/liftlog/internal/assistant"
	"github.com/jkrause/liftlog/internal/domain"
	"github.com/jkrause/liftlog/internal/export"
	"github.com/jkrause/liftlog/internal/logbook"
	"github.com/jkrause/liftlog/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxMediaBodySize = 10 << 20  // 10MB, base64 audio and images

// AssistantService is the slice of assistant operations the API layer uses.
type AssistantService interface {
	AnalyzeMonth(ctx context.Context, records []domain.MaintenanceRecord, monthLabel, locationLabel string) string
	AnalyzeEquipmentImage(ctx context.Context, imageBase64 string, records []domain.MaintenanceRecord) string
	ExtractShiftSchedule(ctx context.Context, fileBase64, mimeType string) []domain.Shift
	ProcessVoiceCommand(ctx context.Context, audioBase64 string) *assistant.VoiceCommand
	CheckVoiceConfirmation(ctx context.Context, audioBase64 string) bool
	ConsultPendingStatus(ctx context.Context, audioBase64 string, records []domain.MaintenanceRecord) string
	AskGuide(ctx context.Context, query string) string
}

type AppDeps struct {
	Store     *storage.Store
	Assistant AssistantService
	Token     string
	Now       func() time.Time
}

func NewAppHandler(deps AppDeps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/records", handleListRecords(deps))
		r.Post("/records", handleCreateRecord(deps))
		r.Put("/records/{id}", handleUpdateRecord(deps))
		r.Delete("/records/{id}", handleDeleteRecord(deps))
		r.Post("/records/find-delete", handleFindDeleteTarget(deps))

		r.Get("/shifts", handleListShifts(deps))
		r.Post("/shifts", handleSaveShifts(deps))
		r.Get("/shifts/today", handleTodayShifts(deps))

		r.Get("/export/csv", handleExportCSV(deps))
		r.Get("/export/pdf", handleExportPDF(deps))
		r.Get("/share/whatsapp", handleShareWhatsApp(deps))
		r.Get("/share/email", handleShareEmail(deps))

		r.Post("/assistant/analyze", handleAnalyze(deps))
		r.Post("/assistant/inventory", handleInventoryScan(deps))
		r.Post("/assistant/schedule", handleScheduleImport(deps))
		r.Post("/assistant/voice", handleVoiceCommand(deps))
		r.Post("/assistant/voice/confirm", handleVoiceConfirm(deps))
		r.Post("/assistant/consult", handleConsult(deps))
		r.Post("/assistant/guide", handleGuide(deps))

		r.Get("/theme", handleGetTheme(deps))
		r.Put("/theme", handleSetTheme(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// parseFilter reads the month/location/search query params shared by the list
// and export routes. Month defaults to the current month, location to ALL.
func parseFilter(r *http.Request, now func() time.Time) (logbook.Filter, error) {
	f := logbook.Filter{
		Month:    r.URL.Query().Get("month"),
		Location: domain.LocationAll,
		Search:   r.URL.Query().Get("search"),
	}
	if f.Month == "" {
		f.Month = now().Format("2006-01")
	}
	if loc := r.URL.Query().Get("location"); loc != "" {
		f.Location = domain.Location(loc)
		if f.Location != domain.LocationAll && !f.Location.Valid() {
			return logbook.Filter{}, fmt.Errorf("unknown location %q", loc)
		}
	}
	return f, nil
}

func filteredRecords(deps AppDeps, r *http.Request) ([]domain.MaintenanceRecord, logbook.Filter, error) {
	f, err := parseFilter(r, deps.Now)
	if err != nil {
		return nil, logbook.Filter{}, err
	}
	return f.Apply(deps.Store.Records()), f, nil
}

func handleListRecords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, _, err := filteredRecords(deps, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, records)
	}
}

func validateRecord(rec *domain.MaintenanceRecord, now func() time.Time) error {
	if rec.Technician == "" {
		return fmt.Errorf("technician is required")
	}
	if rec.EquipmentOrder == "" {
		return fmt.Errorf("equipmentOrder is required")
	}
	if !rec.Location.Valid() {
		return fmt.Errorf("unknown location %q", rec.Location)
	}
	if !rec.EquipmentType.Valid() {
		return fmt.Errorf("unknown equipment type %q", rec.EquipmentType)
	}
	if rec.Date == "" {
		rec.Date = now().Format("2006-01-02")
	}
	if rec.Time == "" {
		rec.Time = now().Format("15:04")
	}
	return nil
}

func handleCreateRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var rec domain.MaintenanceRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := validateRecord(&rec, deps.Now); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		records, err := deps.Store.CreateRecord(rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save record: %v", err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, records)
	}
}

func handleUpdateRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var rec domain.MaintenanceRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		rec.ID = chi.URLParam(r, "id")
		if err := validateRecord(&rec, deps.Now); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		records, err := deps.Store.UpdateRecord(rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update record: %v", err)
			return
		}
		writeJSON(w, records)
	}
}

func handleDeleteRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.DeleteRecord(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete record: %v", err)
			return
		}
		writeJSON(w, records)
	}
}

func handleFindDeleteTarget(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Date      string `json:"date"`
			Equipment string `json:"equipment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Date == "" {
			req.Date = deps.Now().Format("2006-01-02")
		}

		target := logbook.FindDeleteTarget(deps.Store.Records(), req.Date, req.Equipment)
		if target == nil {
			httpError(w, http.StatusNotFound, "not_found", "no record matches date %s and equipment %q", req.Date, req.Equipment)
			return
		}
		writeJSON(w, target)
	}
}

func handleListShifts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Store.Shifts())
	}
}

func handleSaveShifts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var incoming []domain.Shift
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		shifts, err := deps.Store.SaveShifts(incoming)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save shifts: %v", err)
			return
		}
		writeJSON(w, shifts)
	}
}

func handleTodayShifts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := deps.Now().Format("2006-01-02")
		out := make([]domain.Shift, 0, 2)
		for _, s := range deps.Store.Shifts() {
			if s.Date == today {
				out = append(out, s)
			}
		}
		writeJSON(w, out)
	}
}

func handleExportCSV(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, f, err := filteredRecords(deps, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if len(records) == 0 {
			httpError(w, http.StatusNotFound, "not_found", "no records to export for %s", f.Month)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFileName(f.Month)))
		if err := export.WriteCSV(w, records); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to write csv: %v", err)
		}
	}
}

func handleExportPDF(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, f, err := filteredRecords(deps, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if len(records) == 0 {
			httpError(w, http.StatusNotFound, "not_found", "no records to export for %s", f.Month)
			return
		}

		label := logbook.MonthLabel(f.Month)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.PDFFileName(label, deps.Now())))
		if err := export.WritePDF(w, records, label, logbook.LocationLabel(f.Location)); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to write pdf: %v", err)
		}
	}
}

func handleShareWhatsApp(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, f, err := filteredRecords(deps, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		link, err := export.WhatsAppLink(records, f.Month, f.Location)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "no records to share for %s", f.Month)
			return
		}
		writeJSON(w, map[string]string{"url": link})
	}
}

func handleShareEmail(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, f, err := filteredRecords(deps, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		link, err := export.EmailLink(records, f.Month, f.Location)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "no records to share for %s", f.Month)
			return
		}
		writeJSON(w, map[string]string{"url": link})
	}
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Month    string          `json:"month"`
			Location domain.Location `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Month == "" {
			req.Month = deps.Now().Format("2006-01")
		}
		if req.Location == "" {
			req.Location = domain.LocationAll
		}

		f := logbook.Filter{Month: req.Month, Location: req.Location}
		analysis := deps.Assistant.AnalyzeMonth(r.Context(), f.Apply(deps.Store.Records()), logbook.MonthLabel(req.Month), logbook.LocationLabel(req.Location))
		writeJSON(w, map[string]string{"analysis": analysis})
	}
}

func handleInventoryScan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var req struct {
			Image string `json:"image"`
			Month string `json:"month"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Image == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "image is required")
			return
		}
		if req.Month == "" {
			req.Month = deps.Now().Format("2006-01")
		}

		f := logbook.Filter{Month: req.Month, Location: domain.LocationAll}
		report := deps.Assistant.AnalyzeEquipmentImage(r.Context(), req.Image, f.Apply(deps.Store.Records()))
		writeJSON(w, map[string]string{"report": report})
	}
}

func handleScheduleImport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var req struct {
			File     string `json:"file"`
			MimeType string `json:"mimeType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.File == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file is required")
			return
		}
		if req.MimeType == "" {
			req.MimeType = "image/jpeg"
		}

		extracted := deps.Assistant.ExtractShiftSchedule(r.Context(), req.File, req.MimeType)
		if len(extracted) == 0 {
			writeJSON(w, []domain.Shift{})
			return
		}

		shifts, err := deps.Store.SaveShifts(extracted)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save shifts: %v", err)
			return
		}
		writeJSON(w, shifts)
	}
}

func handleVoiceCommand(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var req struct {
			Audio string `json:"audio"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Audio == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "audio is required")
			return
		}

		cmd := deps.Assistant.ProcessVoiceCommand(r.Context(), req.Audio)
		if cmd == nil {
			httpError(w, http.StatusUnprocessableEntity, "assistant_error", "could not understand the voice command")
			return
		}
		writeJSON(w, cmd)
	}
}

func handleVoiceConfirm(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var req struct {
			Audio string `json:"audio"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		confirmed := deps.Assistant.CheckVoiceConfirmation(r.Context(), req.Audio)
		writeJSON(w, map[string]bool{"confirmed": confirmed})
	}
}

func handleConsult(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMediaBodySize)
		defer r.Body.Close()

		var req struct {
			Audio string `json:"audio"`
			Month string `json:"month"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Audio == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "audio is required")
			return
		}
		if req.Month == "" {
			req.Month = deps.Now().Format("2006-01")
		}

		f := logbook.Filter{Month: req.Month, Location: domain.LocationAll}
		answer := deps.Assistant.ConsultPendingStatus(r.Context(), req.Audio, f.Apply(deps.Store.Records()))
		writeJSON(w, map[string]string{"answer": answer})
	}
}

func handleGuide(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		answer := deps.Assistant.AskGuide(r.Context(), req.Query)
		writeJSON(w, map[string]string{"answer": answer})
	}
}

func handleGetTheme(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"theme": deps.Store.Theme()})
	}
}

func handleSetTheme(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := deps.Store.SetTheme(req.Theme); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, map[string]string{"theme": req.Theme})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
