package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jkrause/liftlog/internal/domain"
	"github.com/jkrause/liftlog/internal/genai"
)

// fakeGenerator returns a canned response or error and records the request.
type fakeGenerator struct {
	response string
	err      error
	noKey    bool
	lastReq  genai.Request
	calls    int
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req genai.Request) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeGenerator) HasCredentials() bool { return !f.noKey }

func sampleRecords() []domain.MaintenanceRecord {
	return []domain.MaintenanceRecord{
		{
			ID: "r1", Technician: "José Krause", Date: "2024-03-05", Time: "10:00",
			Location: domain.LocationMarina, EquipmentType: domain.EquipmentElevator,
			EquipmentOrder: "1, 2",
		},
	}
}

func TestAnalyzeMonth_IncludesDataAndLabels(t *testing.T) {
	fake := &fakeGenerator{response: "## Resumen"}
	a := New(fake)

	got := a.AnalyzeMonth(context.Background(), sampleRecords(), "marzo 2024", "Marina")
	if got != "## Resumen" {
		t.Errorf("AnalyzeMonth = %q, want model text", got)
	}

	prompt := fake.lastReq.Parts[0].Text
	for _, want := range []string{"marzo 2024", "Marina", "José Krause", "2024-03-05"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeMonth_MissingCredentialShortCircuits(t *testing.T) {
	fake := &fakeGenerator{noKey: true}
	a := New(fake)

	got := a.AnalyzeMonth(context.Background(), sampleRecords(), "marzo 2024", "Marina")
	if got != msgNoAPIKey {
		t.Errorf("AnalyzeMonth = %q, want %q", got, msgNoAPIKey)
	}
	if fake.calls != 0 {
		t.Errorf("generator called %d times despite missing key", fake.calls)
	}
}

func TestAnalyzeMonth_ErrorYieldsApology(t *testing.T) {
	fake := &fakeGenerator{err: errors.New("boom")}
	a := New(fake)

	got := a.AnalyzeMonth(context.Background(), sampleRecords(), "marzo 2024", "Marina")
	if got != msgAnalysisFailed {
		t.Errorf("AnalyzeMonth = %q, want apology", got)
	}
}

func TestAnalyzeEquipmentImage_StripsDataURIHeader(t *testing.T) {
	fake := &fakeGenerator{response: "reporte"}
	a := New(fake)

	a.AnalyzeEquipmentImage(context.Background(), "data:image/jpeg;base64,QUJD", sampleRecords())

	blob := fake.lastReq.Parts[0].InlineData
	if blob == nil {
		t.Fatal("first part has no inline data")
	}
	if blob.Data != "QUJD" {
		t.Errorf("inline data = %q, want header stripped", blob.Data)
	}
	if blob.MIMEType != "image/jpeg" {
		t.Errorf("mime type = %q, want image/jpeg", blob.MIMEType)
	}
}

func TestExtractShiftSchedule_ParsesArray(t *testing.T) {
	fake := &fakeGenerator{response: `[
		{"date":"2024-12-17","name":"Julio Pérez","role":"Técnico","shiftType":"Noche"},
		{"date":"2024-12-18","name":"Eduardo Leal","role":"Supervisor","shiftType":"Día"}
	]`}
	a := New(fake)

	shifts := a.ExtractShiftSchedule(context.Background(), "QUJD", "image/png")
	if len(shifts) != 2 {
		t.Fatalf("got %d shifts, want 2", len(shifts))
	}
	if shifts[0].Name != "Julio Pérez" || shifts[0].ShiftType != "Noche" {
		t.Errorf("first shift = %+v", shifts[0])
	}
	if fake.lastReq.ResponseMIMEType != "application/json" {
		t.Errorf("response mime = %q, want application/json", fake.lastReq.ResponseMIMEType)
	}
}

func TestExtractShiftSchedule_DropsEntriesMissingRequiredFields(t *testing.T) {
	fake := &fakeGenerator{response: `[
		{"date":"2024-12-17","name":"Julio Pérez"},
		{"date":"","name":"Fantasma"},
		{"date":"2024-12-18","name":""}
	]`}
	a := New(fake)

	shifts := a.ExtractShiftSchedule(context.Background(), "QUJD", "image/png")
	if len(shifts) != 1 {
		t.Errorf("got %d shifts, want 1 valid entry", len(shifts))
	}
}

func TestExtractShiftSchedule_MalformedYieldsEmpty(t *testing.T) {
	fake := &fakeGenerator{response: `{"not":"an array"}`}
	a := New(fake)

	shifts := a.ExtractShiftSchedule(context.Background(), "QUJD", "image/png")
	if len(shifts) != 0 {
		t.Errorf("got %d shifts from malformed response, want 0", len(shifts))
	}
}

func TestProcessVoiceCommand_Create(t *testing.T) {
	fake := &fakeGenerator{response: `{
		"intent":"CREATE",
		"data":{"technician":"José Krause","location":"Marina","equipmentType":"Ascensor","equipmentOrder":"1, 2","date":"2024-03-05"}
	}`}
	a := New(fake)

	cmd := a.ProcessVoiceCommand(context.Background(), "QUJD")
	if cmd == nil {
		t.Fatal("ProcessVoiceCommand returned nil")
	}
	if cmd.Intent != IntentCreate {
		t.Errorf("intent = %q, want CREATE", cmd.Intent)
	}
	if cmd.Data.EquipmentOrder != "1, 2" {
		t.Errorf("equipmentOrder = %q", cmd.Data.EquipmentOrder)
	}
}

func TestProcessVoiceCommand_UnknownIntentRejected(t *testing.T) {
	fake := &fakeGenerator{response: `{"intent":"UPDATE","data":{}}`}
	a := New(fake)

	if cmd := a.ProcessVoiceCommand(context.Background(), "QUJD"); cmd != nil {
		t.Errorf("got %+v for unknown intent, want nil", cmd)
	}
}

func TestProcessVoiceCommand_InvalidEnumRejected(t *testing.T) {
	fake := &fakeGenerator{response: `{"intent":"CREATE","data":{"location":"Plaza Norte"}}`}
	a := New(fake)

	if cmd := a.ProcessVoiceCommand(context.Background(), "QUJD"); cmd != nil {
		t.Errorf("got %+v for out-of-enum location, want nil", cmd)
	}
}

func TestProcessVoiceCommand_ErrorYieldsNil(t *testing.T) {
	fake := &fakeGenerator{err: errors.New("boom")}
	a := New(fake)

	if cmd := a.ProcessVoiceCommand(context.Background(), "QUJD"); cmd != nil {
		t.Errorf("got %+v on generator error, want nil", cmd)
	}
}

func TestCheckVoiceConfirmation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     bool
	}{
		{"confirmed", `{"confirmed":true}`, nil, true},
		{"denied", `{"confirmed":false}`, nil, false},
		{"malformed", `yes`, nil, false},
		{"error", "", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeGenerator{response: tt.response, err: tt.err})
			if got := a.CheckVoiceConfirmation(context.Background(), "QUJD"); got != tt.want {
				t.Errorf("CheckVoiceConfirmation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsultPendingStatus_IncludesInventoryAndDoneList(t *testing.T) {
	fake := &fakeGenerator{response: "Faltan tres equipos en Ama."}
	a := New(fake)

	got := a.ConsultPendingStatus(context.Background(), "QUJD", sampleRecords())
	if got != "Faltan tres equipos en Ama." {
		t.Errorf("ConsultPendingStatus = %q", got)
	}

	prompt := fake.lastReq.Parts[1].Text
	for _, want := range []string{"Torre Marina", "Ascensores Jumbo", "1, 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAskGuide_SetsSystemInstruction(t *testing.T) {
	fake := &fakeGenerator{response: "Usa el menú Exportar."}
	a := New(fake)

	got := a.AskGuide(context.Background(), "¿Cómo exporto a Excel?")
	if got != "Usa el menú Exportar." {
		t.Errorf("AskGuide = %q", got)
	}
	if !strings.Contains(fake.lastReq.SystemInstruction, "Gestor de Mantenciones") {
		t.Error("system instruction missing app context")
	}
}

func TestCleanBase64(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data:audio/webm;base64,QUJD", "QUJD"},
		{"QUJD", "QUJD"},
		{"QUJD,with,commas", "QUJD,with,commas"},
	}
	for _, tt := range tests {
		if got := cleanBase64(tt.in); got != tt.want {
			t.Errorf("cleanBase64(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
