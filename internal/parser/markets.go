package parser

import "strings"

// ExtractMarkets lists the known markets mentioned in recommendations text,
// using the default vocabulary.
func ExtractMarkets(recommendationsText string) []string {
	return defaultParser.ExtractMarkets(recommendationsText)
}

// ExtractMarkets returns the markets of the vocabulary that occur in the text,
// case-insensitively, in vocabulary order and without duplicates. The result
// is never nil.
func (p *Parser) ExtractMarkets(recommendationsText string) []string {
	markets := []string{}
	lower := strings.ToLower(recommendationsText)
	if strings.TrimSpace(lower) == "" {
		return markets
	}

	seen := make(map[string]bool)
	for _, market := range p.vocab.Markets {
		if seen[market] || !strings.Contains(lower, strings.ToLower(market)) {
			continue
		}
		seen[market] = true
		markets = append(markets, market)
	}
	return markets
}
