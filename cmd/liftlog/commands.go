package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jkrause/liftlog/internal/assistant"
	"github.com/jkrause/liftlog/internal/config"
	"github.com/jkrause/liftlog/internal/domain"
)

// filterQuery builds the month/location/search query string shared by the
// list, export and share commands.
func filterQuery(cmd *cobra.Command) string {
	q := url.Values{}
	if month, _ := cmd.Flags().GetString("month"); month != "" {
		q.Set("month", month)
	}
	if location, _ := cmd.Flags().GetString("location"); location != "" {
		q.Set("location", location)
	}
	if search, _ := cmd.Flags().GetString("search"); search != "" {
		q.Set("search", search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("month", "", "month filter (YYYY-MM, default current month)")
	cmd.Flags().String("location", "", "site filter: Marina, Boulevard, Ama or ALL")
}

// fileAsBase64 reads a file and returns its content base64-encoded along with
// a MIME type guessed from the extension.
func fileAsBase64(path string) (data, mimeType string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		mimeType = "application/pdf"
	case ".png":
		mimeType = "image/png"
	case ".webm":
		mimeType = "audio/webm"
	default:
		mimeType = "image/jpeg"
	}
	return base64.StdEncoding.EncodeToString(raw), mimeType, nil
}

func printRecords(records []domain.MaintenanceRecord) {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}
	for _, r := range records {
		sector := ""
		if r.Sector != "" {
			sector = " / " + r.Sector
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Printf("%s  %s %s  %-9s %s%s  %s (%s)\n",
			colorize(colorCyan, id),
			r.Date, r.Time,
			r.Location,
			r.EquipmentType, sector,
			r.EquipmentOrder,
			r.Technician,
		)
	}
}

// --- records ---

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage maintenance records",
}

var recordsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a completed maintenance",
	Long: `Log a completed maintenance.

Examples:
  liftlog records add --technician "José Krause" --location Marina --type Ascensor --equipment "1, 2"
  liftlog records add --technician "Julio Pérez" --location Ama --type "Escalera Mecánica" --equipment Rampas --notes "cambio de peldaño"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		technician, _ := cmd.Flags().GetString("technician")
		location, _ := cmd.Flags().GetString("location")
		equipType, _ := cmd.Flags().GetString("type")
		equipment, _ := cmd.Flags().GetString("equipment")
		date, _ := cmd.Flags().GetString("date")
		timeOfDay, _ := cmd.Flags().GetString("time")
		sector, _ := cmd.Flags().GetString("sector")
		notes, _ := cmd.Flags().GetString("notes")

		if technician == "" || location == "" || equipType == "" || equipment == "" {
			return fmt.Errorf("--technician, --location, --type and --equipment are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := domain.MaintenanceRecord{
			Technician:     technician,
			Location:       domain.Location(location),
			EquipmentType:  domain.EquipmentType(equipType),
			EquipmentOrder: equipment,
			Date:           date,
			Time:           timeOfDay,
			Sector:         sector,
			Notes:          notes,
		}
		resp, err := client.post(cmd.Context(), "/records", body)
		if err != nil {
			return err
		}

		var records []domain.MaintenanceRecord
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		printSuccess("Logged maintenance (%d records total)", len(records))
		return nil
	},
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/records"+filterQuery(cmd))
		if err != nil {
			return err
		}

		var records []domain.MaintenanceRecord
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		printRecords(records)
		return nil
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/records/"+args[0])
		if err != nil {
			return err
		}

		var records []domain.MaintenanceRecord
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		printSuccess("Deleted (%d records remain)", len(records))
		return nil
	},
}

func init() {
	recordsAddCmd.Flags().String("technician", "", "technician name")
	recordsAddCmd.Flags().String("location", "", "site: Marina, Boulevard or Ama")
	recordsAddCmd.Flags().String("type", "", "Ascensor or Escalera Mecánica")
	recordsAddCmd.Flags().String("equipment", "", "equipment identifier, e.g. \"1, 2\"")
	recordsAddCmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	recordsAddCmd.Flags().String("time", "", "time (HH:MM, default now)")
	recordsAddCmd.Flags().String("sector", "", "sector within the site")
	recordsAddCmd.Flags().String("notes", "", "free-text notes")

	addFilterFlags(recordsListCmd)
	recordsListCmd.Flags().String("search", "", "search technician, equipment, site and notes")

	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}

// --- shifts ---

var shiftsCmd = &cobra.Command{
	Use:   "shifts",
	Short: "Manage the shift schedule",
}

var shiftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored shifts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/shifts")
		if err != nil {
			return err
		}

		var shifts []domain.Shift
		if err := decodeJSON(resp, &shifts); err != nil {
			return err
		}

		if len(shifts) == 0 {
			fmt.Println("No shifts stored.")
			return nil
		}
		for _, s := range shifts {
			fmt.Printf("%s  %-6s %-10s %s\n", s.Date, s.ShiftType, s.Role, s.Name)
		}
		return nil
	},
}

var shiftsTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show who is on shift today",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/shifts/today")
		if err != nil {
			return err
		}

		var shifts []domain.Shift
		if err := decodeJSON(resp, &shifts); err != nil {
			return err
		}

		if len(shifts) == 0 {
			fmt.Println("Nobody on shift today.")
			return nil
		}
		for _, s := range shifts {
			fmt.Printf("%-6s %-10s %s\n", s.ShiftType, s.Role, s.Name)
		}
		return nil
	},
}

var shiftsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Extract shifts from a schedule photo or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, mimeType, err := fileAsBase64(args[0])
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/schedule", map[string]string{
			"file":     data,
			"mimeType": mimeType,
		})
		if err != nil {
			return err
		}

		var shifts []domain.Shift
		if err := decodeJSON(resp, &shifts); err != nil {
			return err
		}

		if len(shifts) == 0 {
			printWarning("No shifts could be extracted from %s", args[0])
			return nil
		}
		printSuccess("Imported schedule (%d shifts stored)", len(shifts))
		return nil
	},
}

func init() {
	shiftsCmd.AddCommand(shiftsListCmd)
	shiftsCmd.AddCommand(shiftsTodayCmd)
	shiftsCmd.AddCommand(shiftsImportCmd)
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the month's records",
}

func runExport(cmd *cobra.Command, format, defaultName string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = defaultName
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(cmd.Context(), "/export/"+format+filterQuery(cmd))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s", apiErr.Error.Message)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if _, err := f.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	printSuccess("Exported to %s", output)
	return nil
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export records as a CSV spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "csv", "mantenciones.csv")
	},
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Export records as a PDF report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "pdf", "reporte.pdf")
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCSVCmd, exportPDFCmd} {
		addFilterFlags(c)
		c.Flags().String("search", "", "search filter")
		c.Flags().String("output", "", "output file path")
		exportCmd.AddCommand(c)
	}
}

// --- share ---

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Build share links for the month's summary",
}

func runShare(cmd *cobra.Command, channel string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(cmd.Context(), "/share/"+channel+filterQuery(cmd))
	if err != nil {
		return err
	}

	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}

	fmt.Println(result["url"])
	return nil
}

var shareWhatsAppCmd = &cobra.Command{
	Use:   "whatsapp",
	Short: "Print a WhatsApp link with the month's summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShare(cmd, "whatsapp")
	},
}

var shareEmailCmd = &cobra.Command{
	Use:   "email",
	Short: "Print a mailto link with the month's summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShare(cmd, "email")
	},
}

func init() {
	for _, c := range []*cobra.Command{shareWhatsAppCmd, shareEmailCmd} {
		addFilterFlags(c)
		shareCmd.AddCommand(c)
	}
}

// --- assist ---

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Gemini-backed assistant operations",
}

var assistAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the month's maintenance data",
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetString("month")
		location, _ := cmd.Flags().GetString("location")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/analyze", map[string]string{
			"month":    month,
			"location": location,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["analysis"])
		return nil
	},
}

var assistScanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Compare an equipment photo or plan against the month's records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := fileAsBase64(args[0])
		if err != nil {
			return err
		}
		month, _ := cmd.Flags().GetString("month")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/inventory", map[string]string{
			"image": data,
			"month": month,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["report"])
		return nil
	},
}

var assistVoiceCmd = &cobra.Command{
	Use:   "voice <audio>",
	Short: "Interpret a dictated command and apply it",
	Long: `Interpret a dictated command and apply it.

A CREATE command logs the dictated maintenance. A DELETE command looks up
the matching record and asks for confirmation before removing it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := fileAsBase64(args[0])
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/voice", map[string]string{"audio": data})
		if err != nil {
			return err
		}

		var voiceCmd assistant.VoiceCommand
		if err := decodeJSON(resp, &voiceCmd); err != nil {
			return err
		}

		switch voiceCmd.Intent {
		case assistant.IntentCreate:
			createResp, err := client.post(cmd.Context(), "/records", voiceCmd.Data)
			if err != nil {
				return err
			}
			var records []domain.MaintenanceRecord
			if err := decodeJSON(createResp, &records); err != nil {
				return err
			}
			printSuccess("Logged %s %s at %s (%s)",
				voiceCmd.Data.EquipmentType, voiceCmd.Data.EquipmentOrder,
				voiceCmd.Data.Location, voiceCmd.Data.Technician)
			return nil

		case assistant.IntentDelete:
			findResp, err := client.post(cmd.Context(), "/records/find-delete", map[string]string{
				"date":      voiceCmd.Data.Date,
				"equipment": voiceCmd.Data.EquipmentOrder,
			})
			if err != nil {
				return err
			}
			var target domain.MaintenanceRecord
			if err := decodeJSON(findResp, &target); err != nil {
				return err
			}

			fmt.Printf("Matched record: %s %s %s %s (%s)\n",
				target.Date, target.Time, target.Location, target.EquipmentOrder, target.Technician)
			fmt.Print("Delete this record? [y/N]: ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				printWarning("Cancelled")
				return nil
			}

			delResp, err := client.delete(cmd.Context(), "/records/"+target.ID)
			if err != nil {
				return err
			}
			var remaining []domain.MaintenanceRecord
			if err := decodeJSON(delResp, &remaining); err != nil {
				return err
			}
			printSuccess("Deleted (%d records remain)", len(remaining))
			return nil

		default:
			return fmt.Errorf("unknown intent %q", voiceCmd.Intent)
		}
	},
}

var assistConsultCmd = &cobra.Command{
	Use:   "consult <audio>",
	Short: "Ask about pending equipment by voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := fileAsBase64(args[0])
		if err != nil {
			return err
		}
		month, _ := cmd.Flags().GetString("month")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/consult", map[string]string{
			"audio": data,
			"month": month,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["answer"])
		return nil
	},
}

var assistGuideCmd = &cobra.Command{
	Use:   "guide <question>",
	Short: "Ask how to use the application",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant/guide", map[string]string{
			"query": strings.Join(args, " "),
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["answer"])
		return nil
	},
}

func init() {
	addFilterFlags(assistAnalyzeCmd)
	assistScanCmd.Flags().String("month", "", "month to compare against (YYYY-MM)")
	assistConsultCmd.Flags().String("month", "", "month to consult (YYYY-MM)")

	assistCmd.AddCommand(assistAnalyzeCmd)
	assistCmd.AddCommand(assistScanCmd)
	assistCmd.AddCommand(assistVoiceCmd)
	assistCmd.AddCommand(assistConsultCmd)
	assistCmd.AddCommand(assistGuideCmd)
}

// --- theme ---

var themeCmd = &cobra.Command{
	Use:   "theme [dark|light]",
	Short: "Show or set the UI theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			resp, err := client.get(cmd.Context(), "/theme")
			if err != nil {
				return err
			}
			var result map[string]string
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}
			fmt.Println(result["theme"])
			return nil
		}

		resp, err := client.put(cmd.Context(), "/theme", map[string]string{"theme": args[0]})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Theme set to %s", result["theme"])
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
