package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Dash stands in for missing values.
const Dash = "-"

// Decimal renders d with a fixed number of places.
func Decimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// Price renders a price, using more places for sub-unit prices.
func Price(d decimal.Decimal, places int32) string {
	if d.IsZero() {
		return Dash
	}
	if d.Abs().LessThan(decimal.NewFromInt(1)) && places < 6 {
		places = 6
	}
	return groupThousands(d.StringFixed(places))
}

// Money renders an amount with thousands separators and two decimals.
func Money(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(2))
}

// Percent renders a signed percentage such as "+2.50%".
func Percent(d decimal.Decimal) string {
	value := d.StringFixed(2)
	if d.IsPositive() {
		value = "+" + value
	}
	return value + "%"
}

// Float renders f with the given precision.
func Float(f float64, places int) string {
	return fmt.Sprintf("%.*f", places, f)
}

// Time renders t in UTC, or a dash when zero.
func Time(t time.Time) string {
	if t.IsZero() {
		return Dash
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// Text returns value, or a dash when blank.
func Text(value string) string {
	if strings.TrimSpace(value) == "" {
		return Dash
	}
	return value
}

func groupThousands(value string) string {
	sign := ""
	if strings.HasPrefix(value, "-") {
		sign, value = "-", value[1:]
	}
	whole, frac, hasFrac := strings.Cut(value, ".")
	if len(whole) > 3 {
		var b strings.Builder
		lead := len(whole) % 3
		if lead > 0 {
			b.WriteString(whole[:lead])
		}
		for i := lead; i < len(whole); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(whole[i : i+3])
		}
		whole = b.String()
	}
	if hasFrac {
		return sign + whole + "." + frac
	}
	return sign + whole
}
