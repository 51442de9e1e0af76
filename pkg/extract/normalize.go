package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// legacyPlainRegex is the plain-text number shape the first script used.
	legacyPlainRegex = regexp.MustCompile(`\d+(?:\.\d{2})?`)
	// localePlainRegex matches "1.234,56", "150,00" and "50".
	localePlainRegex = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+(?:,\d{2})?|\d+(?:,\d{2})?`)
	// currencyRegex matches "$1.234,56" or "$ 50" in recognized text.
	currencyRegex = regexp.MustCompile(`\$\s?(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`)
	// bareAmountRegex matches an amount written without "$". Only money-shaped
	// tokens qualify (thousands groups or two decimals) and the token must stand
	// alone, so dates, times and reference numbers are not taken.
	bareAmountRegex = regexp.MustCompile(`(?:^|[^\d.,/:$])(\d{1,3}(?:\.\d{3})+(?:,\d{2})?|\d+,\d{2})(?:$|[^\d.,/:]|[.,](?:\D|$))`)
)

// Normalize converts a locale-formatted number ("." thousands, "," decimal)
// into a float. Plain-text and OCR amounts both go through here.
func Normalize(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("normalize %q: %w", s, err)
	}
	return v, nil
}

// FindPlainAmount returns the first number in a message under the given
// policy, or "" when the message mentions none.
func FindPlainAmount(message string, policy PlainTextPolicy) string {
	if policy == PlainTextLegacy {
		return legacyPlainRegex.FindString(message)
	}
	return localePlainRegex.FindString(message)
}

// FindCurrencyAmount returns the digits of the first currency-shaped token in
// recognized text, or "" when there is none. The "$" sign is optional; a
// "$"-prefixed amount is preferred over a bare one.
func FindCurrencyAmount(text string) string {
	if m := currencyRegex.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	if m := bareAmountRegex.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return ""
}
