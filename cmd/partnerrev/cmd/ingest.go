package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"partner-revenue-service/cmd/partnerrev/config"
	"partner-revenue-service/internal/models"
	"partner-revenue-service/internal/store"
	"partner-revenue-service/internal/uploads"
	"partner-revenue-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the ingest command
var (
	ingestFile string
	uploadedBy string
	replace    bool
	batchSize  int
	batchDelay time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a monthly payment export",
	Long: `Ingest parses a payment export CSV, normalizes merchant names, matches
them against the partner roster and persists the upload with its
transactions into the record store.

Each file belongs to one calendar month, derived from its first row. If an
upload for that month already exists the command stops and reports the
conflict; pass --replace to replace the existing upload instead.

Examples:
  # Basic ingest
  partnerrev ingest --file january.csv

  # Record who uploaded the file
  partnerrev ingest --file january.csv --uploaded-by alex

  # Replace an existing upload for the same month
  partnerrev ingest --file january-corrected.csv --replace`,

	PreRunE: validateIngestFlags,
	RunE:    runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Required flags
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to the payment export CSV (required)")

	// Upload flags
	ingestCmd.Flags().StringVar(&uploadedBy, "uploaded-by", "", "name recorded against the upload")
	ingestCmd.Flags().BoolVar(&replace, "replace", false, "replace an existing upload for the same month")

	// Persistence tuning flags
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", 0, "transactions per store request (default 50)")
	ingestCmd.Flags().DurationVar(&batchDelay, "batch-delay", 0, "pause between store requests (default 250ms)")

	ingestCmd.MarkFlagRequired("file")

	// Bind flags to viper
	viper.BindPFlag("file", ingestCmd.Flags().Lookup("file"))
	viper.BindPFlag("uploaded-by", ingestCmd.Flags().Lookup("uploaded-by"))
	viper.BindPFlag("replace", ingestCmd.Flags().Lookup("replace"))
	viper.BindPFlag("batch-size", ingestCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("batch-delay", ingestCmd.Flags().Lookup("batch-delay"))
}

func validateIngestFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	ingestFile = viper.GetString("file")
	uploadedBy = viper.GetString("uploaded-by")
	replace = viper.GetBool("replace")
	batchSize = viper.GetInt("batch-size")
	batchDelay = viper.GetDuration("batch-delay")

	if ingestFile == "" {
		return fmt.Errorf("file is required")
	}
	if batchSize < 0 {
		return fmt.Errorf("batch size cannot be negative")
	}

	info, err := os.Stat(ingestFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("export file does not exist: %s", ingestFile)
	}
	if err != nil {
		return fmt.Errorf("error accessing export file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("export file is a directory, expected a file: %s", ingestFile)
	}

	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting ingest...\n")
		fmt.Fprintf(os.Stderr, "Export file: %s\n", ingestFile)
	}

	content, err := os.ReadFile(ingestFile)
	if err != nil {
		if os.IsPermission(err) {
			return errors.FileError(errors.CodeFilePermission, ingestFile, err)
		}
		return errors.FileError(errors.CodeFileNotFound, ingestFile, err)
	}
	if len(content) == 0 {
		return errors.FileError(errors.CodeFileEmpty, ingestFile, nil)
	}

	st, err := store.NewHTTPStore(config.CreateStoreConfig())
	if err != nil {
		return err
	}

	manager, err := uploads.NewManager(st, config.CreateUploadConfig(batchSize, batchDelay))
	if err != nil {
		return err
	}

	result, err := manager.Ingest(ctx, string(content), uploads.IngestOptions{
		Filename:   filepath.Base(ingestFile),
		UploadedBy: uploadedBy,
		Replace:    replace,
	})
	if err != nil {
		return err
	}

	printIngestSummary(result)
	return nil
}

func printIngestSummary(result *uploads.IngestResult) {
	upload := result.Upload

	fmt.Printf("Ingested %s as %s\n", upload.Filename, upload.Month)
	if result.Replaced {
		fmt.Printf("Replaced the previous upload for %s\n", upload.Month)
	}
	fmt.Printf("  Transactions: %d (%s)\n", upload.TotalTransactions, models.FormatAmount(upload.TotalSpend))
	fmt.Printf("  Matched:      %d\n", upload.MatchedCount)
	fmt.Printf("  Unmatched:    %d\n", upload.UnmatchedCount)
	fmt.Printf("  %s\n", result.Stats)

	if len(result.Match.Proposals) > 0 {
		fmt.Printf("\nMatch proposals awaiting review:\n")
		for _, proposal := range result.Match.Proposals {
			fmt.Printf("  %s -> %s (score %d, alias %q)\n",
				proposal.Merchant, proposal.Partner.Name, proposal.Score, proposal.SuggestedAlias)
		}
	}
}
