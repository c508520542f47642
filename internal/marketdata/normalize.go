package marketdata

import "strings"

// symbolAliases maps common company and asset names to tradable symbols.
var symbolAliases = map[string]string{
	"GOOGLE":    "GOOGL",
	"GOOG":      "GOOGL",
	"FACEBOOK":  "META",
	"FB":        "META",
	"AMAZON":    "AMZN",
	"MICROSOFT": "MSFT",
	"APPLE":     "AAPL",
	"TESLA":     "TSLA",
	"NETFLIX":   "NFLX",
	"BITCOIN":   "BTC-USD",
	"BTC":       "BTC-USD",
	"ETHEREUM":  "ETH-USD",
	"ETH":       "ETH-USD",
}

// NormalizeSymbol maps a user-entered name onto its canonical symbol.
// Unrecognized input passes through uppercased.
func NormalizeSymbol(input string) string {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	if canonical, ok := symbolAliases[symbol]; ok {
		return canonical
	}
	return symbol
}
