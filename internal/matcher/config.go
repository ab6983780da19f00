package matcher

import "fmt"

// Config holds the fuzzy scoring constants. The values are empirically
// chosen; they are configuration rather than derivation so behaviour can be
// tuned without touching the scoring code.
type Config struct {
	// MinScore is the minimum score for a fuzzy proposal to be surfaced.
	MinScore int `json:"min_score"`

	// MerchantContainsCeiling scales scores where the merchant name
	// contains the partner name. Payment descriptors often wrap a
	// partner's short brand name, so this direction scores higher.
	MerchantContainsCeiling int `json:"merchant_contains_ceiling"`

	// PartnerContainsCeiling scales scores for the reverse containment.
	PartnerContainsCeiling int `json:"partner_contains_ceiling"`

	// SubstringCeiling scales scores from shared substrings. Always below
	// the containment tiers.
	SubstringCeiling int `json:"substring_ceiling"`

	// MinOverlap is the minimum shared-substring length considered at all.
	MinOverlap int `json:"min_overlap"`
}

// DefaultConfig returns the scoring constants used in production.
func DefaultConfig() *Config {
	return &Config{
		MinScore:                70,
		MerchantContainsCeiling: 90,
		PartnerContainsCeiling:  80,
		SubstringCeiling:        60,
		MinOverlap:              6,
	}
}

// Validate checks if the matcher configuration is coherent.
func (c *Config) Validate() error {
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("min score must be between 0 and 100: %d", c.MinScore)
	}

	if c.MerchantContainsCeiling <= c.PartnerContainsCeiling {
		return fmt.Errorf("merchant-contains ceiling (%d) must exceed partner-contains ceiling (%d)",
			c.MerchantContainsCeiling, c.PartnerContainsCeiling)
	}

	if c.SubstringCeiling >= c.PartnerContainsCeiling {
		return fmt.Errorf("substring ceiling (%d) must stay below the containment tiers (%d)",
			c.SubstringCeiling, c.PartnerContainsCeiling)
	}

	if c.MinOverlap <= 0 {
		return fmt.Errorf("min overlap must be positive: %d", c.MinOverlap)
	}

	return nil
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
