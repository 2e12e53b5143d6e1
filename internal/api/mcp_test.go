package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jkrause/liftlog/internal/domain"
	"github.com/jkrause/liftlog/internal/storage"
)

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{Store: store, Now: testNow}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_LogMaintenance(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	handler := mcpLogMaintenance(deps)

	req := makeCallToolRequest("log_maintenance", map[string]interface{}{
		"technician":     "José Krause",
		"location":       "Marina",
		"equipment_type": "Ascensor",
		"equipment":      "Torre Marina",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Date != "2024-03-15" {
		t.Errorf("date = %q, want clock default", records[0].Date)
	}
}

func TestMCPTool_LogMaintenance_BadLocation(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpLogMaintenance(deps)

	req := makeCallToolRequest("log_maintenance", map[string]interface{}{
		"technician":     "X",
		"location":       "Plaza Norte",
		"equipment_type": "Ascensor",
		"equipment":      "1",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for unknown location")
	}
}

func TestMCPTool_FindRecords(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	seedRecord(t, store, marchRecord())
	handler := mcpFindRecords(deps)

	req := makeCallToolRequest("find_records", map[string]interface{}{
		"month":    "2024-03",
		"location": "Marina",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var records []domain.MaintenanceRecord
	if err := json.Unmarshal([]byte(toolText(t, result)), &records); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(records) != 1 || records[0].ID != "r1" {
		t.Errorf("records = %v", records)
	}
}

func TestMCPTool_FindRecords_DefaultsToCurrentMonth(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	seedRecord(t, store, marchRecord())
	handler := mcpFindRecords(deps)

	result, err := handler(context.Background(), makeCallToolRequest("find_records", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []domain.MaintenanceRecord
	if err := json.Unmarshal([]byte(toolText(t, result)), &records); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected the clock's month to match, got %d records", len(records))
	}
}

func TestMCPTool_PendingEquipment(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	seedRecord(t, store, marchRecord())
	handler := mcpPendingEquipment(deps)

	req := makeCallToolRequest("pending_equipment", map[string]interface{}{
		"month":    "2024-03",
		"location": "Marina",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var reports []pendingReport
	if err := json.Unmarshal([]byte(toolText(t, result)), &reports); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(reports) != 1 || reports[0].Location != "Marina" {
		t.Fatalf("reports = %v", reports)
	}

	foundDone := false
	for _, item := range reports[0].Done {
		if item == "Torre Marina" {
			foundDone = true
		}
	}
	if !foundDone {
		t.Errorf("Torre Marina not marked done: %v", reports[0].Done)
	}
	if len(reports[0].Pending) == 0 {
		t.Error("expected pending equipment for a single-record month")
	}
}

func TestMCPTool_TodayShift(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	if _, err := store.SaveShifts([]domain.Shift{
		{Date: "2024-03-15", Name: "Julio Pérez", Role: "Técnico", ShiftType: "Día"},
		{Date: "2024-03-16", Name: "Eduardo Leal", Role: "Supervisor", ShiftType: "Día"},
	}); err != nil {
		t.Fatalf("seeding shifts: %v", err)
	}
	handler := mcpTodayShift(deps)

	result, err := handler(context.Background(), makeCallToolRequest("today_shift", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var shifts []domain.Shift
	if err := json.Unmarshal([]byte(toolText(t, result)), &shifts); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(shifts) != 1 || shifts[0].Name != "Julio Pérez" {
		t.Errorf("shifts = %v, want only today's", shifts)
	}
}

func TestMCPResource_Summary(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	seedRecord(t, store, marchRecord())
	handler := mcpResourceSummary(deps)

	contents, err := handler(context.Background(), makeReadResourceRequest("logbook://summary"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var summary map[string]any
	if err := json.Unmarshal([]byte(text.Text), &summary); err != nil {
		t.Fatalf("parsing summary: %v", err)
	}
	if summary["month"] != "2024-03" {
		t.Errorf("month = %v", summary["month"])
	}
	if summary["total"] != float64(1) || summary["elevators"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}
}

func TestMCPServer_Constructs(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
