// Package normalizer maps raw payment descriptors to canonical merchant
// identities.
//
// Payment processors decorate merchant names with prefixes, store numbers,
// asterisks and partial URLs ("ADDISONLEE*4421", "WWW.TRAINLINE.COM"). All
// downstream grouping, alias matching and the discovery list key on the
// canonical identity produced here: two raw strings that normalize to the
// same canonical value are the same merchant everywhere.
package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"partner-revenue-service/pkg/logger"
)

// MatchKind controls how a rule's patterns are tested against a candidate.
type MatchKind int

const (
	// MatchExact requires the whole candidate to equal the pattern. Use for
	// short names like "EE" that would otherwise fire as substrings of
	// unrelated merchants.
	MatchExact MatchKind = iota

	// MatchPrefix requires the candidate to start with the pattern.
	MatchPrefix

	// MatchContains requires the candidate to contain the pattern.
	MatchContains
)

// Rule maps a set of patterns to a canonical merchant name and an optional
// spend category. Rules are evaluated in order, first match wins, so more
// specific entries must precede generic ones.
type Rule struct {
	Kind      MatchKind
	Patterns  []string
	Canonical string
	Category  string
}

// Merchant is the result of normalizing a raw descriptor.
type Merchant struct {
	Canonical string
	Category  string
}

// DefaultRules returns the built-in dispatch table. Order is match priority.
func DefaultRules() []Rule {
	return []Rule{
		{MatchContains, []string{"ADDISON LEE", "ADDISONLEE"}, "Addison Lee", "Travel"},
		{MatchContains, []string{"UBER EATS", "UBER *EATS", "UBEREATS"}, "Uber Eats", "Food"},
		{MatchContains, []string{"UBER"}, "Uber", "Travel"},
		{MatchContains, []string{"AMAZON PRIME", "AMZNPRIME"}, "Amazon Prime", "Subscriptions"},
		{MatchContains, []string{"AMAZON", "AMZN"}, "Amazon", "Shopping"},
		{MatchPrefix, []string{"TFL", "TRANSPORT FOR LONDON"}, "TfL", "Travel"},
		{MatchContains, []string{"TRAINLINE", "THETRAINLINE"}, "Trainline", "Travel"},
		{MatchContains, []string{"DELIVEROO"}, "Deliveroo", "Food"},
		{MatchPrefix, []string{"PRET A MANGER", "PRET"}, "Pret a Manger", "Food"},
		{MatchContains, []string{"MCDONALD"}, "McDonald's", "Food"},
		{MatchContains, []string{"TESCO"}, "Tesco", "Groceries"},
		{MatchContains, []string{"SAINSBURY"}, "Sainsbury's", "Groceries"},
		{MatchContains, []string{"MARKS AND SPENCER", "MARKS & SPENCER", "M&S"}, "Marks & Spencer", "Groceries"},
		{MatchContains, []string{"VODAFONE"}, "Vodafone", "Utilities"},
		// EE must never fire on merchants merely containing "EE" as part of
		// a longer token, so only exact and explicit prefix forms match.
		{MatchExact, []string{"EE"}, "EE", "Utilities"},
		{MatchPrefix, []string{"EE LIMITED", "EE *"}, "EE", "Utilities"},
		{MatchContains, []string{"NETFLIX"}, "Netflix", "Subscriptions"},
		{MatchContains, []string{"SPOTIFY"}, "Spotify", "Subscriptions"},
		{MatchPrefix, []string{"GOOGLE"}, "Google", "Software"},
		{MatchContains, []string{"AIRBNB"}, "Airbnb", "Travel"},
		{MatchContains, []string{"BOOKING.COM"}, "Booking.com", "Travel"},
	}
}

var (
	leadingWWW     = regexp.MustCompile(`^WWW\.`)
	trailingTLD    = regexp.MustCompile(`(\.COM|\.CO\.UK)$`)
	trailingStars  = regexp.MustCompile(`\*+$`)
	trailingDigits = regexp.MustCompile(`[\s#*]*\d+$`)
)

// Normalizer maps raw merchant descriptors to canonical identities using an
// ordered rule table with a cleanup fallback.
type Normalizer struct {
	rules  []Rule
	caser  cases.Caser
	logger logger.Logger
}

// NewNormalizer creates a Normalizer. A nil rules slice uses DefaultRules.
func NewNormalizer(rules []Rule) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}

	return &Normalizer{
		rules:  rules,
		caser:  cases.Title(language.BritishEnglish),
		logger: logger.GetGlobalLogger().WithComponent("normalizer"),
	}
}

// Normalize returns the canonical identity string for a raw descriptor.
func (n *Normalizer) Normalize(raw string) string {
	return n.Lookup(raw).Canonical
}

// Lookup returns the canonical identity and category for a raw descriptor.
// Rules are tried in table order; the first match wins. Descriptors that
// match no rule go through a cleanup pass instead.
func (n *Normalizer) Lookup(raw string) Merchant {
	candidate := strings.ToUpper(strings.TrimSpace(raw))

	for _, rule := range n.rules {
		for _, pattern := range rule.Patterns {
			if rule.matches(candidate, pattern) {
				return Merchant{Canonical: rule.Canonical, Category: rule.Category}
			}
		}
	}

	return Merchant{Canonical: n.cleanup(candidate)}
}

func (r Rule) matches(candidate, pattern string) bool {
	switch r.Kind {
	case MatchExact:
		return candidate == pattern
	case MatchPrefix:
		return strings.HasPrefix(candidate, pattern)
	default:
		return strings.Contains(candidate, pattern)
	}
}

// cleanup strips processor decoration from an unrecognised descriptor and
// title-cases it for display.
func (n *Normalizer) cleanup(candidate string) string {
	cleaned := leadingWWW.ReplaceAllString(candidate, "")
	cleaned = trailingTLD.ReplaceAllString(cleaned, "")
	cleaned = trailingStars.ReplaceAllString(cleaned, "")
	cleaned = trailingDigits.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "Unknown"
	}

	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = n.caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	return strings.Join(words, " ")
}
