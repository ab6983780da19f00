// Package reporter renders aggregation results for the CLI.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: flat rows for spreadsheet import
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"partner-revenue-service/internal/aggregator"
	"partner-revenue-service/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludePartnerStats bool `json:"include_partner_stats"`
	IncludeDiscovery    bool `json:"include_discovery"`
	IncludeWeeklySeries bool `json:"include_weekly_series"`
	IncludeCategories   bool `json:"include_categories"`

	// DiscoverySort orders the discovery section.
	DiscoverySort aggregator.DiscoverySort `json:"discovery_sort"`

	// MaxDiscoveryItems truncates the discovery list in console output.
	// Zero means no limit.
	MaxDiscoveryItems int `json:"max_discovery_items"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludePartnerStats: true,
		IncludeDiscovery:    true,
		IncludeWeeklySeries: true,
		IncludeCategories:   true,
		DiscoverySort:       aggregator.SortByFrequency,
		MaxDiscoveryItems:   20,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxDiscoveryItems < 0 {
		return fmt.Errorf("max discovery items cannot be negative: %d", c.MaxDiscoveryItems)
	}
	return nil
}

// Report bundles everything one report run renders.
type Report struct {
	Scope       string                      `json:"scope"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Result      *aggregator.Result          `json:"result"`
	Weekly      []*aggregator.WeeklyPoint   `json:"weekly,omitempty"`
	Categories  []*aggregator.CategorySlice `json:"categories,omitempty"`
	Uploads     []*models.Upload            `json:"uploads,omitempty"`
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator. A nil config uses
// DefaultReportConfig.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the report to the provided writer.
func (rg *ReportGenerator) GenerateReport(report *Report, writer io.Writer) error {
	if report == nil || report.Result == nil {
		return fmt.Errorf("report result cannot be nil")
	}

	aggregator.SortDiscovery(report.Result.Discovery, rg.config.DiscoverySort)

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(report *Report, writer io.Writer) error {
	result := report.Result

	fmt.Fprintf(writer, "PARTNER REVENUE REPORT\n")
	fmt.Fprintf(writer, "Scope: %s\n", report.Scope)
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	total := result.AttributedCount + result.UnattributedCount
	fmt.Fprintf(writer, "Transactions:\n")
	fmt.Fprintf(writer, "  Total:        %d\n", total)
	fmt.Fprintf(writer, "  Attributed:   %d (%.1f%%)\n",
		result.AttributedCount, percentage(result.AttributedCount, total))
	fmt.Fprintf(writer, "  Unattributed: %d (%.1f%%)\n",
		result.UnattributedCount, percentage(result.UnattributedCount, total))
	fmt.Fprintf(writer, "  Hidden:       %d\n", result.HiddenCount)
	fmt.Fprintf(writer, "Total Revenue:    %s\n", models.FormatAmount(result.TotalRevenue))
	fmt.Fprintf(writer, "Total Commission: %s\n\n", models.FormatAmount(result.TotalCommission))

	if rg.config.IncludePartnerStats && len(result.PartnerStats) > 0 {
		fmt.Fprintf(writer, "=== PARTNER PERFORMANCE ===\n")
		for _, stats := range result.PartnerStats {
			fmt.Fprintf(writer, "%s [%s]\n", stats.PartnerName, stats.Health)
			fmt.Fprintf(writer, "  Transactions: %d, Revenue: %s, Commission: %s\n",
				stats.TransactionCount,
				models.FormatAmount(stats.TotalRevenue),
				models.FormatAmount(stats.CommissionEarned))
			fmt.Fprintf(writer, "  Avg Deal: %s, Last Transaction: %s (%d days ago)\n",
				models.FormatAmount(stats.AverageDealSize),
				stats.LastTransaction.Format("2006-01-02"),
				stats.DaysSinceLast)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeDiscovery && len(result.Discovery) > 0 {
		fmt.Fprintf(writer, "=== DISCOVERY (unattributed merchants, by %s) ===\n", rg.config.DiscoverySort)
		rg.printDiscovery(result.Discovery, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeWeeklySeries && len(report.Weekly) > 0 {
		fmt.Fprintf(writer, "=== WEEKLY REVENUE ===\n")
		for _, point := range report.Weekly {
			fmt.Fprintf(writer, "  w/c %s: revenue %s, commission %s\n",
				point.WeekStart.Format("2006-01-02"),
				models.FormatAmount(point.Revenue),
				models.FormatAmount(point.Commission))
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeCategories && len(report.Categories) > 0 {
		fmt.Fprintf(writer, "=== SPEND BY CATEGORY ===\n")
		for _, slice := range report.Categories {
			fmt.Fprintf(writer, "  %-15s %s (%d transactions)\n",
				slice.Category, models.FormatAmount(slice.Revenue), slice.Count)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(report.Uploads) > 0 {
		fmt.Fprintf(writer, "=== UPLOADS ===\n")
		for _, upload := range report.Uploads {
			fmt.Fprintf(writer, "  %s: %s, %d transactions, %s\n",
				upload.Month, upload.Filename, upload.TotalTransactions,
				models.FormatAmount(upload.TotalSpend))
		}
	}

	return nil
}

func (rg *ReportGenerator) printDiscovery(discovery []*aggregator.MerchantStats, writer io.Writer) {
	for i, stats := range discovery {
		if rg.config.MaxDiscoveryItems > 0 && i >= rg.config.MaxDiscoveryItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(discovery)-rg.config.MaxDiscoveryItems)
			break
		}

		fmt.Fprintf(writer, "  %d. %s: %d transactions, %s, last seen %s\n",
			i+1,
			stats.Name,
			stats.Count,
			models.FormatAmount(stats.TotalRevenue),
			stats.LastUsed.Format("2006-01-02"))
	}
}

func (rg *ReportGenerator) generateJSONReport(report *Report, writer io.Writer) error {
	output := map[string]interface{}{
		"scope":        report.Scope,
		"generated_at": report.GeneratedAt,
		"summary": map[string]interface{}{
			"attributed_count":   report.Result.AttributedCount,
			"unattributed_count": report.Result.UnattributedCount,
			"hidden_count":       report.Result.HiddenCount,
			"total_revenue":      report.Result.TotalRevenue,
			"total_commission":   report.Result.TotalCommission,
		},
	}

	if rg.config.IncludePartnerStats {
		output["partner_stats"] = report.Result.PartnerStats
	}
	if rg.config.IncludeDiscovery {
		output["discovery"] = report.Result.Discovery
	}
	if rg.config.IncludeWeeklySeries && report.Weekly != nil {
		output["weekly"] = report.Weekly
	}
	if rg.config.IncludeCategories && report.Categories != nil {
		output["categories"] = report.Categories
	}
	if report.Uploads != nil {
		output["uploads"] = report.Uploads
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (rg *ReportGenerator) generateCSVReport(report *Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	headers := []string{"Type", "Name", "Transactions", "Revenue_Pence", "Commission_Pence", "Health", "Last_Seen"}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	if rg.config.IncludePartnerStats {
		for _, stats := range report.Result.PartnerStats {
			record := []string{
				"Partner",
				stats.PartnerName,
				strconv.Itoa(stats.TransactionCount),
				strconv.FormatInt(stats.TotalRevenue, 10),
				strconv.FormatInt(stats.CommissionEarned, 10),
				string(stats.Health),
				stats.LastTransaction.Format("2006-01-02"),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write partner record: %w", err)
			}
		}
	}

	if rg.config.IncludeDiscovery {
		for _, stats := range report.Result.Discovery {
			record := []string{
				"Discovery",
				stats.Name,
				strconv.Itoa(stats.Count),
				strconv.FormatInt(stats.TotalRevenue, 10),
				"",
				"",
				stats.LastUsed.Format("2006-01-02"),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write discovery record: %w", err)
			}
		}
	}

	return nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}
