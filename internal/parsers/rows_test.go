package parsers

import (
	"strings"
	"testing"

	"partner-revenue-service/pkg/errors"
)

func TestParseRowsColumnOrderIndependence(t *testing.T) {
	// The same logical row in every column permutation must parse to the
	// same (date, merchant, amount) triple.
	permutations := []string{
		"01/03/2024,ADDISONLEE*1234,£45.00",
		"01/03/2024,£45.00,ADDISONLEE*1234",
		"ADDISONLEE*1234,01/03/2024,£45.00",
		"£45.00,01/03/2024,ADDISONLEE*1234",
		"ADDISONLEE*1234,£45.00,01/03/2024",
		"£45.00,ADDISONLEE*1234,01/03/2024",
	}

	parser := NewRowParser()
	for _, line := range permutations {
		rows, _, err := parser.ParseRows(line)
		if err != nil {
			t.Fatalf("ParseRows(%q) unexpected error: %v", line, err)
		}
		if len(rows) != 1 {
			t.Fatalf("ParseRows(%q) = %d rows, want 1", line, len(rows))
		}

		row := rows[0]
		if row.Date != "01/03/2024" {
			t.Errorf("ParseRows(%q) date = %q, want 01/03/2024", line, row.Date)
		}
		if row.Merchant != "ADDISONLEE*1234" {
			t.Errorf("ParseRows(%q) merchant = %q, want ADDISONLEE*1234", line, row.Merchant)
		}
		if row.Amount != "£45.00" {
			t.Errorf("ParseRows(%q) amount = %q, want £45.00", line, row.Amount)
		}
	}
}

func TestParseRowsNumericMerchantKeepsDeclaredOrder(t *testing.T) {
	// A purely numeric merchant descriptor parses as an amount too, so the
	// merchant/amount swap cannot fire; the declared order wins.
	tests := []struct {
		name         string
		line         string
		wantMerchant string
		wantAmount   string
	}{
		{"numeric merchant in declared order", "01/03/2024,118118,£5.00", "118118", "£5.00"},
		{"non-numeric merchant still swaps", "01/03/2024,£5.00,UBER TRIP", "UBER TRIP", "£5.00"},
	}

	parser := NewRowParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := parser.ParseRows(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if rows[0].Merchant != tt.wantMerchant {
				t.Errorf("merchant = %q, want %q", rows[0].Merchant, tt.wantMerchant)
			}
			if rows[0].Amount != tt.wantAmount {
				t.Errorf("amount = %q, want %q", rows[0].Amount, tt.wantAmount)
			}
		})
	}
}

func TestParseRowsHeaderSkipping(t *testing.T) {
	content := strings.Join([]string{
		"Date,Merchant,Amount",
		"01/03/2024,TESCO STORES 2041,£12.50",
		"02/03/2024,UBER TRIP,£8.00",
	}, "\n")

	rows, stats, err := NewRowParser().ParseRows(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if stats.HeaderLines != 1 {
		t.Errorf("header lines = %d, want 1", stats.HeaderLines)
	}
	if stats.RowsParsed != 2 {
		t.Errorf("rows parsed = %d, want 2", stats.RowsParsed)
	}
}

func TestParseRowsQuotedFields(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantMerchant string
	}{
		{"comma inside quotes", `01/03/2024,"SMITH, JONES AND CO",£100.00`, "SMITH, JONES AND CO"},
		{"escaped quote inside quotes", `01/03/2024,"THE ""CORNER"" SHOP",£5.00`, `THE "CORNER" SHOP`},
		{"quoted amount", `01/03/2024,TESCO,"£1,234.56"`, "TESCO"},
	}

	parser := NewRowParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := parser.ParseRows(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if rows[0].Merchant != tt.wantMerchant {
				t.Errorf("merchant = %q, want %q", rows[0].Merchant, tt.wantMerchant)
			}
		})
	}
}

func TestParseRowsQuotedAmountKeepsThousands(t *testing.T) {
	rows, _, err := NewRowParser().ParseRows(`01/03/2024,TESCO,"£1,234.56"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Amount != "£1,234.56" {
		t.Errorf("amount = %q, want £1,234.56", rows[0].Amount)
	}
}

func TestParseRowsSkipsBadRows(t *testing.T) {
	content := strings.Join([]string{
		"01/03/2024,TESCO,£12.50",
		"just some stray text",
		"too,few",
		"no-date-here,TESCO,£5.00",
		"02/03/2024,UBER,£8.00",
		"",
	}, "\n")

	rows, stats, err := NewRowParser().ParseRows(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if stats.RowsSkipped != 3 {
		t.Errorf("rows skipped = %d, want 3", stats.RowsSkipped)
	}
}

func TestParseRowsFailsOnZeroValidRows(t *testing.T) {
	content := strings.Join([]string{
		"Date,Merchant,Amount",
		"not,a,row at all",
		"",
	}, "\n")

	_, stats, err := NewRowParser().ParseRows(content)
	if err == nil {
		t.Fatal("expected error for file with no valid rows")
	}
	if !errors.HasCode(err, errors.CodeNoValidRows) {
		t.Errorf("expected no_valid_rows code, got %v", err)
	}
	if stats == nil || stats.RowsParsed != 0 {
		t.Error("stats should report zero parsed rows")
	}
}

func TestParseRowsCRLFLineEndings(t *testing.T) {
	content := "01/03/2024,TESCO,£12.50\r\n02/03/2024,UBER,£8.00\r\n"

	rows, _, err := NewRowParser().ParseRows(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestParseRowsExtraColumnsIgnored(t *testing.T) {
	// Only the first three fields participate in column detection; trailing
	// columns are ignored rather than failing the row.
	rows, _, err := NewRowParser().ParseRows("01/03/2024,TESCO,£12.50,extra,columns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Merchant != "TESCO" {
		t.Errorf("merchant = %q, want TESCO", rows[0].Merchant)
	}
}
