package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExportGenerator generates monthly payment export CSV files in the
// bank's report format: D/M/YYYY dates, pound amounts, raw merchant
// descriptors.
type ExportGenerator struct {
	Count        int
	Month        time.Time
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	UnknownRatio float64
	Seed         int64
}

// ExportRow represents one payment row before formatting.
type ExportRow struct {
	Date     time.Time
	Merchant string
	Amount   decimal.Decimal
}

// Raw descriptors as they appear on real statements: terminal codes,
// domain suffixes, embedded commas.
var knownMerchants = []string{
	"ADDISONLEE*WAT123456",
	"ADDISONLEE*WAT998877",
	"UBER *TRIP HELP.UBER.COM",
	"UBER *EATS PENDING",
	"AMZNMktplace amazon.co.uk",
	"AMAZON.CO.UK*MK1AB2CD3",
	"TESCO STORES 3297",
	"SAINSBURYS S/MKT",
	"TFL TRAVEL CH TFL.GOV.UK",
	"TRAINLINE.COM LONDON",
	"DELIVEROO.CO.UK",
	"PRET A MANGER 095",
}

var unknownMerchants = []string{
	"MYSTERY CAFE LTD",
	"CORNER NEWSAGENT 44",
	"\"SMITH, JONES AND CO\"",
	"ACME SUPPLIES PLC",
	"RIVERSIDE PARKING",
	"BLUE SKY TAXIS",
}

func main() {
	var (
		output       = flag.String("output", "generated_export.csv", "Output CSV file path")
		count        = flag.Int("count", 200, "Number of payment rows to generate")
		month        = flag.String("month", "2024-03", "Export month (YYYY-MM)")
		minAmount    = flag.Float64("min-amount", 2.50, "Minimum payment amount in pounds")
		maxAmount    = flag.Float64("max-amount", 450.00, "Maximum payment amount in pounds")
		unknownRatio = flag.Float64("unknown-ratio", 0.3, "Share of rows using merchants outside the known pool")
		columnOrder  = flag.String("column-order", "date-first", "Column order: date-first, name-first")
		badRows      = flag.Int("bad-rows", 0, "Number of unparseable rows to sprinkle in")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	monthStart, err := time.Parse("2006-01", *month)
	if err != nil {
		log.Fatalf("Invalid month: %v", err)
	}

	generator := &ExportGenerator{
		Count:        *count,
		Month:        monthStart,
		MinAmount:    decimal.NewFromFloat(*minAmount),
		MaxAmount:    decimal.NewFromFloat(*maxAmount),
		UnknownRatio: *unknownRatio,
		Seed:         *seed,
	}

	rows := generator.Generate()

	if err := generator.WriteToCSV(*output, rows, *columnOrder, *badRows); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	fmt.Printf("Generated %d payment rows in %s\n", len(rows), *output)
	fmt.Printf("Month: %s, column order: %s\n", *month, *columnOrder)
	fmt.Printf("Seed used: %d\n", *seed)
}

// Generate creates payment rows spread across the month, skewed towards
// the known merchant pool so ingests produce both matches and discovery.
func (eg *ExportGenerator) Generate() []ExportRow {
	rng := rand.New(rand.NewSource(eg.Seed))
	rows := make([]ExportRow, eg.Count)

	daysInMonth := eg.Month.AddDate(0, 1, -1).Day()

	for i := 0; i < eg.Count; i++ {
		day := 1 + rng.Intn(daysInMonth)
		date := time.Date(eg.Month.Year(), eg.Month.Month(), day, 0, 0, 0, 0, time.UTC)

		var merchant string
		if rng.Float64() < eg.UnknownRatio {
			merchant = unknownMerchants[rng.Intn(len(unknownMerchants))]
		} else {
			merchant = knownMerchants[rng.Intn(len(knownMerchants))]
		}

		amountRange := eg.MaxAmount.Sub(eg.MinAmount)
		amount := decimal.NewFromFloat(rng.Float64()).Mul(amountRange).Add(eg.MinAmount).Round(2)

		rows[i] = ExportRow{Date: date, Merchant: merchant, Amount: amount}
	}

	return rows
}

// WriteToCSV writes rows in the report format. Quoted merchants in the
// pool already carry their own quotes, so fields are joined by hand
// rather than through csv.Writer's re-quoting.
func (eg *ExportGenerator) WriteToCSV(filename string, rows []ExportRow, columnOrder string, badRows int) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	nameFirst := columnOrder == "name-first"

	header := "Date,Merchant,Amount\n"
	if nameFirst {
		header = "Merchant,Date,Amount\n"
	}
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(eg.Seed + 1))
	badPositions := make(map[int]bool)
	for len(badPositions) < badRows && len(badPositions) < len(rows) {
		badPositions[rng.Intn(len(rows))] = true
	}

	for i, row := range rows {
		if badPositions[i] {
			if _, err := file.WriteString(badRow(rng, nameFirst)); err != nil {
				return err
			}
			continue
		}

		date := fmt.Sprintf("%d/%d/%d", row.Date.Day(), int(row.Date.Month()), row.Date.Year())
		amount := formatPounds(row.Amount)

		var line string
		if nameFirst {
			line = fmt.Sprintf("%s,%s,%s\n", row.Merchant, date, amount)
		} else {
			line = fmt.Sprintf("%s,%s,%s\n", date, row.Merchant, amount)
		}
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}

// badRow produces a row the parser must skip: invalid calendar date or
// a non-monetary amount.
func badRow(rng *rand.Rand, nameFirst bool) string {
	variants := []string{
		"31/2/2024,IMPOSSIBLE DATE LTD,£10.00",
		"1/13/2024,BAD MONTH STORES,£5.00",
		"5/3/2024,NOT A NUMBER CO,ten pounds",
		"5/3/2024,MISSING AMOUNT LTD,",
	}
	line := variants[rng.Intn(len(variants))]
	if nameFirst {
		// Swap date and name for the alternate column order
		fields := strings.SplitN(line, ",", 3)
		line = fields[1] + "," + fields[0] + "," + fields[2]
	}
	return line + "\n"
}

// formatPounds renders an amount the way the bank report does, with a
// pound sign and thousands separators.
func formatPounds(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	dot := len(s) - 3
	intPart, fracPart := s[:dot], s[dot:]

	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}

	return "£" + string(grouped) + fracPart
}
