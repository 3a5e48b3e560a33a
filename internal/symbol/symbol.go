// Package symbol maps loose ticker input ("btc", "BTC/USD", "BTCUSD") to the
// platform's canonical BASE-QUOTE form.
package symbol

import (
	"regexp"
	"strings"
)

// DefaultQuote is appended to bare symbols that are not known equities.
const DefaultQuote = "USD"

// concatenatedPair matches a base of 2-5 letters glued to a known quote currency.
var concatenatedPair = regexp.MustCompile(`^([A-Z]{2,5})(USDT|USD|EUR|GBP|BTC|ETH)$`)

// equities lists tickers that trade as-is on the platform and must never get a
// quote suffix.
var equities = map[string]struct{}{
	"AAPL": {}, "MSFT": {}, "GOOGL": {}, "GOOG": {}, "AMZN": {}, "META": {},
	"TSLA": {}, "NVDA": {}, "AMD": {}, "INTC": {}, "NFLX": {}, "ORCL": {},
	"CRM": {}, "ADBE": {}, "PYPL": {}, "SQ": {}, "SHOP": {}, "UBER": {},
	"COIN": {}, "MSTR": {}, "HOOD": {}, "PLTR": {}, "IBM": {}, "DIS": {},
	"JPM": {}, "BAC": {}, "GS": {}, "V": {}, "MA": {}, "WMT": {},
	"KO": {}, "PEP": {}, "XOM": {}, "CVX": {}, "BA": {}, "NKE": {},
	"SPY": {}, "QQQ": {}, "IWM": {}, "DIA": {}, "VTI": {}, "VOO": {},
	"ARKK": {}, "GLD": {}, "SLV": {}, "TLT": {}, "XLF": {}, "XLE": {},
	"XLK": {}, "IBIT": {}, "FBTC": {}, "ETHA": {},
}

// Normalize returns the canonical form of a free-form ticker.
//
// Unknown bare symbols default to crypto and get a -USD suffix, so an equity
// that is not in the allow-list is rewritten as well.
func Normalize(input string) string {
	value := strings.ToUpper(strings.TrimSpace(input))
	if value == "" {
		return ""
	}

	if strings.Contains(value, "/") {
		return strings.ReplaceAll(value, "/", "-")
	}
	if strings.Contains(value, "-") {
		return value
	}
	if IsEquity(value) {
		return value
	}
	if parts := concatenatedPair.FindStringSubmatch(value); parts != nil {
		return parts[1] + "-" + parts[2]
	}

	return value + "-" + DefaultQuote
}

// NormalizeAll normalizes every entry, splitting comma-separated values and
// dropping empties and duplicates while keeping first-seen order.
func NormalizeAll(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			normalized := Normalize(part)
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}
	return result
}

// IsEquity reports whether the ticker is on the equity/ETF allow-list.
func IsEquity(ticker string) bool {
	_, ok := equities[strings.ToUpper(strings.TrimSpace(ticker))]
	return ok
}

// AssetClass labels a canonical symbol as "equity" or "crypto".
func AssetClass(canonical string) string {
	if IsEquity(canonical) {
		return "equity"
	}
	return "crypto"
}
