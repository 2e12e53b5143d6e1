package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jkrause/liftlog/internal/assistant"
	"github.com/jkrause/liftlog/internal/domain"
	"github.com/jkrause/liftlog/internal/logbook"
	"github.com/jkrause/liftlog/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
	Now   func() time.Time
}

// NewMCPServer creates an MCP server exposing the maintenance log to local
// agents: logging work, querying records, listing pending equipment and
// today's crew.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := server.NewMCPServer(
		"liftlog",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("liftlog: local maintenance log for mall elevators and escalators."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("log_maintenance",
			mcp.WithDescription("Record a completed elevator or escalator maintenance."),
			mcp.WithString("technician", mcp.Description("Technician who did the work"), mcp.Required()),
			mcp.WithString("location", mcp.Description("Site: Marina, Boulevard or Ama"), mcp.Required()),
			mcp.WithString("equipment_type", mcp.Description("Ascensor or Escalera Mecánica"), mcp.Required()),
			mcp.WithString("equipment", mcp.Description("Equipment identifier, e.g. \"1, 2\" or \"Torre Marina\""), mcp.Required()),
			mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD), defaults to today")),
			mcp.WithString("time", mcp.Description("Time (HH:MM), defaults to now")),
			mcp.WithString("sector", mcp.Description("Optional sector within the site")),
			mcp.WithString("notes", mcp.Description("Optional free-text notes")),
		),
		mcpLogMaintenance(deps),
	)

	s.AddTool(
		mcp.NewTool("find_records",
			mcp.WithDescription("List maintenance records for a month, optionally narrowed by site and a search term."),
			mcp.WithString("month", mcp.Description("Month (YYYY-MM), defaults to the current month")),
			mcp.WithString("location", mcp.Description("Site filter: Marina, Boulevard, Ama or ALL")),
			mcp.WithString("search", mcp.Description("Case-insensitive search over technician, equipment, site and notes")),
		),
		mcpFindRecords(deps),
	)

	s.AddTool(
		mcp.NewTool("pending_equipment",
			mcp.WithDescription("Compare the master equipment inventory against the month's completed maintenance and list what is still pending per site."),
			mcp.WithString("month", mcp.Description("Month (YYYY-MM), defaults to the current month")),
			mcp.WithString("location", mcp.Description("Site filter: Marina, Boulevard, Ama or ALL")),
		),
		mcpPendingEquipment(deps),
	)

	s.AddTool(
		mcp.NewTool("today_shift",
			mcp.WithDescription("List the supervisors and technicians on shift today."),
		),
		mcpTodayShift(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"logbook://summary",
			"Current Month Summary",
			mcp.WithResourceDescription("Record counts for the current month as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSummary(deps),
	)

	return s
}

func mcpLogMaintenance(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		technician, err := req.RequireString("technician")
		if err != nil {
			return mcpError("technician is required"), nil
		}
		location, err := req.RequireString("location")
		if err != nil {
			return mcpError("location is required"), nil
		}
		equipmentType, err := req.RequireString("equipment_type")
		if err != nil {
			return mcpError("equipment_type is required"), nil
		}
		equipment, err := req.RequireString("equipment")
		if err != nil {
			return mcpError("equipment is required"), nil
		}

		rec := domain.MaintenanceRecord{
			ID:             uuid.New().String(),
			Technician:     technician,
			Location:       domain.Location(location),
			EquipmentType:  domain.EquipmentType(equipmentType),
			EquipmentOrder: equipment,
			Sector:         req.GetString("sector", ""),
			Notes:          req.GetString("notes", ""),
			Date:           req.GetString("date", deps.Now().Format("2006-01-02")),
			Time:           req.GetString("time", deps.Now().Format("15:04")),
		}
		if !rec.Location.Valid() {
			return mcpError(fmt.Sprintf("unknown location %q, expected Marina, Boulevard or Ama", location)), nil
		}
		if !rec.EquipmentType.Valid() {
			return mcpError(fmt.Sprintf("unknown equipment type %q, expected Ascensor or Escalera Mecánica", equipmentType)), nil
		}

		if _, err := deps.Store.CreateRecord(rec); err != nil {
			return mcpError(fmt.Sprintf("failed to save record: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Logged maintenance %s: %s %s at %s on %s", rec.ID, rec.EquipmentType, rec.EquipmentOrder, rec.Location, rec.Date)), nil
	}
}

func mcpFindRecords(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		f := logbook.Filter{
			Month:    req.GetString("month", deps.Now().Format("2006-01")),
			Location: domain.LocationAll,
			Search:   req.GetString("search", ""),
		}
		if loc := req.GetString("location", ""); loc != "" && loc != string(domain.LocationAll) {
			f.Location = domain.Location(loc)
			if !f.Location.Valid() {
				return mcpError(fmt.Sprintf("unknown location %q", loc)), nil
			}
		}

		matched := f.Apply(deps.Store.Records())
		b, err := json.Marshal(matched)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal records: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

// pendingReport is the per-site result of the inventory comparison.
type pendingReport struct {
	Location string   `json:"location"`
	Done     []string `json:"done"`
	Pending  []string `json:"pending"`
}

func mcpPendingEquipment(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		month := req.GetString("month", deps.Now().Format("2006-01"))
		locFilter := domain.LocationAll
		if loc := req.GetString("location", ""); loc != "" && loc != string(domain.LocationAll) {
			locFilter = domain.Location(loc)
			if !locFilter.Valid() {
				return mcpError(fmt.Sprintf("unknown location %q", loc)), nil
			}
		}

		monthly := logbook.Filter{Month: month, Location: locFilter}.Apply(deps.Store.Records())

		var reports []pendingReport
		for _, loc := range domain.Locations() {
			if locFilter != domain.LocationAll && loc != locFilter {
				continue
			}
			rep := pendingReport{Location: string(loc), Done: []string{}, Pending: []string{}}
			for _, item := range assistant.Inventory()[loc] {
				if equipmentCovered(monthly, loc, item) {
					rep.Done = append(rep.Done, item)
				} else {
					rep.Pending = append(rep.Pending, item)
				}
			}
			reports = append(reports, rep)
		}

		b, err := json.Marshal(reports)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal report: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

// equipmentCovered reports whether any record at the site references the
// inventory item, matching loosely in either direction so "Torre Marina"
// covers a record logged as "Torre".
func equipmentCovered(records []domain.MaintenanceRecord, loc domain.Location, item string) bool {
	needle := strings.ToLower(item)
	for _, r := range records {
		if r.Location != loc {
			continue
		}
		eq := strings.ToLower(r.EquipmentOrder)
		sector := strings.ToLower(r.Sector)
		if strings.Contains(eq, needle) || strings.Contains(needle, eq) {
			return true
		}
		if sector != "" && (strings.Contains(sector, needle) || strings.Contains(needle, sector)) {
			return true
		}
	}
	return false
}

func mcpTodayShift(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		today := deps.Now().Format("2006-01-02")
		onDuty := make([]domain.Shift, 0, 2)
		for _, s := range deps.Store.Shifts() {
			if s.Date == today {
				onDuty = append(onDuty, s)
			}
		}

		b, err := json.Marshal(onDuty)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal shifts: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceSummary(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		month := deps.Now().Format("2006-01")
		monthly := logbook.Filter{Month: month, Location: domain.LocationAll}.Apply(deps.Store.Records())
		stats := logbook.Summarize(monthly)

		b, err := json.Marshal(map[string]any{
			"month":      month,
			"total":      stats.Total,
			"elevators":  stats.Elevators,
			"escalators": stats.Escalators,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summary: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
