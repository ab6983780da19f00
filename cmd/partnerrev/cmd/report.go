package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"partner-revenue-service/cmd/partnerrev/config"
	"partner-revenue-service/internal/aggregator"
	"partner-revenue-service/internal/models"
	"partner-revenue-service/internal/reporter"
	"partner-revenue-service/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	reportScope   string
	reportMonth   string
	discoverySort string
	outputFormat  string
	outputFile    string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report partner revenue and discovery",
	Long: `Report aggregates persisted transactions into partner revenue,
commission and health statistics plus the discovery list of unattributed
merchants.

Scope is either one month's upload or everything in the store.

Examples:
  # Report a single month
  partnerrev report --scope month --month 2026-01

  # Report everything, discovery sorted by spend
  partnerrev report --scope all --sort revenue

  # Machine-readable output
  partnerrev report --scope all --output-format json --output-file report.json`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportScope, "scope", "all", "report scope: month, all")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "month to report (YYYY-MM, required for --scope month)")
	reportCmd.Flags().StringVar(&discoverySort, "sort", "frequency", "discovery ordering: frequency, revenue, recency")
	reportCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Bind flags to viper
	viper.BindPFlag("scope", reportCmd.Flags().Lookup("scope"))
	viper.BindPFlag("month", reportCmd.Flags().Lookup("month"))
	viper.BindPFlag("sort", reportCmd.Flags().Lookup("sort"))
	viper.BindPFlag("output-format", reportCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reportCmd.Flags().Lookup("output-file"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	reportScope = viper.GetString("scope")
	reportMonth = viper.GetString("month")
	discoverySort = viper.GetString("sort")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")

	if reportScope != "month" && reportScope != "all" {
		return fmt.Errorf("invalid scope '%s'. Valid scopes: month, all", reportScope)
	}

	if reportScope == "month" {
		if reportMonth == "" {
			return fmt.Errorf("month is required when scope is 'month'")
		}
		if !models.IsMonthKey(reportMonth) {
			return fmt.Errorf("invalid month '%s'. Use YYYY-MM", reportMonth)
		}
	}

	validSorts := map[string]bool{"frequency": true, "revenue": true, "recency": true}
	if !validSorts[discoverySort] {
		return fmt.Errorf("invalid sort '%s'. Valid sorts: frequency, revenue, recency", discoverySort)
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := store.NewHTTPStore(config.CreateStoreConfig())
	if err != nil {
		return err
	}

	roster, err := st.ListPartners(ctx)
	if err != nil {
		return err
	}

	transactions, uploadList, scope, err := loadScope(ctx, st)
	if err != nil {
		return err
	}

	engine := aggregator.NewEngine(nil)
	report := &reporter.Report{
		Scope:       scope,
		GeneratedAt: time.Now(),
		Result:      engine.Aggregate(transactions, roster),
		Weekly:      engine.WeeklySeries(transactions, roster),
		Categories:  engine.CategoryDistribution(transactions),
		Uploads:     uploadList,
	}

	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat, discoverySort))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := generator.GenerateReport(report, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReport complete: %d transactions across %d uploads.\n",
			len(transactions), len(uploadList))
	}

	return nil
}

// loadScope fetches the transactions and uploads covered by the requested
// report scope.
func loadScope(ctx context.Context, st store.Store) ([]*models.Transaction, []*models.Upload, string, error) {
	if reportScope == "all" {
		uploadList, err := st.ListUploads(ctx)
		if err != nil {
			return nil, nil, "", err
		}
		transactions, err := st.ListTransactions(ctx, "")
		if err != nil {
			return nil, nil, "", err
		}
		return transactions, uploadList, "all uploads", nil
	}

	upload, err := st.FindUploadByMonth(ctx, reportMonth)
	if err != nil {
		return nil, nil, "", err
	}
	if upload == nil {
		return nil, nil, "", fmt.Errorf("no upload found for %s", reportMonth)
	}

	transactions, err := st.ListTransactions(ctx, upload.ID)
	if err != nil {
		return nil, nil, "", err
	}

	return transactions, []*models.Upload{upload}, reportMonth, nil
}
