package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// RupeesInWords renders an amount in the Indian numbering system, e.g.
// 1200 -> "Rupees One Thousand Two Hundred Only",
// 250075.50 -> "Rupees Two Lakh Fifty Thousand Seventy Five and Fifty Paise Only".
func RupeesInWords(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	abs := amount.Abs()

	rupees := abs.Truncate(0).IntPart()
	paise := abs.Sub(abs.Truncate(0)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise >= 100 {
		rupees++
		paise -= 100
	}

	var b strings.Builder
	if negative {
		b.WriteString("Minus ")
	}
	b.WriteString("Rupees ")
	b.WriteString(integerWords(rupees))
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(integerWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

// integerWords spells a non-negative integer using crore/lakh/thousand grouping.
func integerWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	if crore := n / 1_00_00_000; crore > 0 {
		parts = append(parts, integerWords(crore), "Crore")
		n %= 1_00_00_000
	}
	if lakh := n / 1_00_000; lakh > 0 {
		parts = append(parts, twoDigitWords(int(lakh)), "Lakh")
		n %= 1_00_000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, twoDigitWords(int(thousand)), "Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, onesWords[hundred], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, twoDigitWords(int(n)))
	}
	return strings.Join(parts, " ")
}

func twoDigitWords(n int) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}
