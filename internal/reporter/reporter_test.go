package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"partner-revenue-service/internal/aggregator"
	"partner-revenue-service/internal/models"
)

func createTestReport() *Report {
	lastTx := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	return &Report{
		Scope:       "2024-03",
		GeneratedAt: time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
		Result: &aggregator.Result{
			PartnerStats: []*aggregator.PartnerRevenueStats{
				{
					PartnerID:        "p1",
					PartnerName:      "Addison Lee",
					TransactionCount: 4,
					TotalRevenue:     18000,
					CommissionEarned: 1800,
					LastTransaction:  lastTx,
					DaysSinceLast:    5,
					Health:           aggregator.HealthGreen,
					AverageDealSize:  4500,
				},
			},
			Discovery: []*aggregator.MerchantStats{
				{Name: "MYSTERY CAFE", Count: 3, TotalRevenue: 2100, LastUsed: lastTx, Category: "Food & Drink"},
				{Name: "UNKNOWN LTD", Count: 1, TotalRevenue: 9000, LastUsed: lastTx},
			},
			AttributedCount:   4,
			UnattributedCount: 4,
			HiddenCount:       1,
			TotalRevenue:      29100,
			TotalCommission:   1800,
		},
		Weekly: []*aggregator.WeeklyPoint{
			{WeekStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Revenue: 29100, Commission: 1800},
		},
		Categories: []*aggregator.CategorySlice{
			{Category: "Transport", Count: 4, Revenue: 18000},
			{Category: "Uncategorised", Count: 4, Revenue: 11100},
		},
		Uploads: []*models.Upload{
			{ID: "u1", Month: "2024-03", Filename: "march.csv", TotalTransactions: 9, TotalSpend: 29100},
		},
	}
}

func TestReportConfigValidate(t *testing.T) {
	if err := DefaultReportConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}

	bad := DefaultReportConfig()
	bad.Format = OutputFormat("xml")
	if err := bad.Validate(); err == nil {
		t.Error("unknown format should fail validation")
	}

	negative := DefaultReportConfig()
	negative.MaxDiscoveryItems = -1
	if err := negative.Validate(); err == nil {
		t.Error("negative discovery limit should fail validation")
	}
}

func TestOutputFormatIsValid(t *testing.T) {
	for _, format := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV} {
		if !format.IsValid() {
			t.Errorf("format %s should be valid", format)
		}
	}
	if OutputFormat("yaml").IsValid() {
		t.Error("yaml should not be a valid format")
	}
}

func TestConsoleReportSections(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	output := buf.String()

	sections := []string{
		"=== SUMMARY ===",
		"=== PARTNER PERFORMANCE ===",
		"=== DISCOVERY",
		"=== WEEKLY REVENUE ===",
		"=== SPEND BY CATEGORY ===",
		"=== UPLOADS ===",
	}
	for _, section := range sections {
		if !strings.Contains(output, section) {
			t.Errorf("console output missing section %q", section)
		}
	}

	if !strings.Contains(output, "Addison Lee [green]") {
		t.Error("console output should show partner health inline")
	}
	if !strings.Contains(output, "Total Revenue:    £291.00") {
		t.Errorf("console output should format revenue as pounds:\n%s", output)
	}
	if !strings.Contains(output, "Attributed:   4 (50.0%)") {
		t.Error("console output should show attribution percentage")
	}
	if !strings.Contains(output, "w/c 2024-03-10") {
		t.Error("console output should label weekly points by week start")
	}
}

func TestConsoleReportTruncatesDiscovery(t *testing.T) {
	config := DefaultReportConfig()
	config.MaxDiscoveryItems = 1
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if !strings.Contains(buf.String(), "... and 1 more") {
		t.Errorf("truncated discovery should note the remainder:\n%s", buf.String())
	}
}

func TestConsoleReportHonoursDiscoverySort(t *testing.T) {
	config := DefaultReportConfig()
	config.DiscoverySort = aggregator.SortByRevenue
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	output := buf.String()

	// UNKNOWN LTD carries more revenue, so it leads under revenue sort even
	// though MYSTERY CAFE has more transactions.
	if strings.Index(output, "UNKNOWN LTD") > strings.Index(output, "MYSTERY CAFE") {
		t.Errorf("revenue sort should list UNKNOWN LTD first:\n%s", output)
	}
}

func TestJSONReportDecodes(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}

	if decoded["scope"] != "2024-03" {
		t.Errorf("scope = %v", decoded["scope"])
	}

	summary, ok := decoded["summary"].(map[string]interface{})
	if !ok {
		t.Fatal("summary section missing")
	}
	if summary["total_revenue"].(float64) != 29100 {
		t.Errorf("total_revenue = %v", summary["total_revenue"])
	}

	for _, key := range []string{"partner_stats", "discovery", "weekly", "categories", "uploads"} {
		if _, present := decoded[key]; !present {
			t.Errorf("JSON output missing %q", key)
		}
	}
}

func TestCSVReportRows(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}

	// header + 1 partner + 2 discovery rows
	if len(records) != 4 {
		t.Fatalf("record count = %d, want 4", len(records))
	}
	if records[0][0] != "Type" || records[0][3] != "Revenue_Pence" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "Partner" || records[1][1] != "Addison Lee" || records[1][3] != "18000" {
		t.Errorf("partner row = %v", records[1])
	}
	if records[2][0] != "Discovery" {
		t.Errorf("discovery row = %v", records[2])
	}
}

func TestGenerateReportRejectsNilResult(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(nil, &buf); err == nil {
		t.Error("nil report should be rejected")
	}
	if err := generator.GenerateReport(&Report{}, &buf); err == nil {
		t.Error("report without a result should be rejected")
	}
}
