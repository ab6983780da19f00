package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

// RosterGenerator generates partner roster JSON for seeding a record
// store in integration environments.
type RosterGenerator struct {
	Count       int
	SignedRatio float64
	Seed        int64
}

// PartnerTemplate mirrors the record store's partner payload.
type PartnerTemplate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	SignedAt   *string  `json:"signed_at,omitempty"`
	Commission string   `json:"commission,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
}

var partnerNames = []struct {
	name    string
	aliases []string
}{
	{"Addison Lee", []string{"ADDISONLEE"}},
	{"Uber", []string{"UBER", "UBER TRIP"}},
	{"Amazon", []string{"AMZN", "AMAZON.CO.UK"}},
	{"Tesco", []string{"TESCO STORES"}},
	{"Trainline", []string{"TRAINLINE.COM"}},
	{"Deliveroo", []string{"DELIVEROO"}},
	{"Pret a Manger", []string{"PRET A MANGER"}},
	{"Sainsbury's", []string{"SAINSBURYS"}},
	{"Transport for London", []string{"TFL TRAVEL"}},
	{"Greene King", nil},
	{"Costa Coffee", nil},
	{"Boots", nil},
}

var pipelineStatuses = []string{"potential", "contacted", "lead", "negotiation", "closed"}

func main() {
	var (
		output      = flag.String("output", "generated_roster.json", "Output JSON file path")
		count       = flag.Int("count", len(partnerNames), "Number of partners to generate")
		signedRatio = flag.Float64("signed-ratio", 0.6, "Share of partners in signed status")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	if *count > len(partnerNames) {
		log.Fatalf("Count %d exceeds the partner name pool (%d)", *count, len(partnerNames))
	}

	generator := &RosterGenerator{
		Count:       *count,
		SignedRatio: *signedRatio,
		Seed:        *seed,
	}

	partners := generator.Generate()

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]interface{}{"partners": partners}); err != nil {
		log.Fatalf("Failed to write roster: %v", err)
	}

	fmt.Printf("Generated %d partners in %s\n", len(partners), *output)
	fmt.Printf("Seed used: %d\n", *seed)
}

// Generate produces partners with a mix of signed and pipeline statuses.
// Signed partners get a signature date in the past year so eligibility
// windows vary.
func (rg *RosterGenerator) Generate() []PartnerTemplate {
	rng := rand.New(rand.NewSource(rg.Seed))
	partners := make([]PartnerTemplate, rg.Count)

	for i := 0; i < rg.Count; i++ {
		entry := partnerNames[i]
		partner := PartnerTemplate{
			ID:         fmt.Sprintf("p%03d", i+1),
			Name:       entry.name,
			Commission: fmt.Sprintf("%d%%", 5+rng.Intn(11)),
			Aliases:    entry.aliases,
		}

		if rng.Float64() < rg.SignedRatio {
			partner.Status = "signed"
			signedAt := time.Now().AddDate(0, 0, -rng.Intn(365)).Format(time.RFC3339)
			partner.SignedAt = &signedAt
		} else {
			partner.Status = pipelineStatuses[rng.Intn(len(pipelineStatuses))]
		}

		partners[i] = partner
	}

	return partners
}
