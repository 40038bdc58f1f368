package pricing

import (
	"fmt"
	"math"
	"strings"
)

const (
	crore = 1e7
	lakh  = 1e5
)

// FormatINR renders a rupee amount in Indian units: Crore from ten million,
// Lakh from one hundred thousand, otherwise a comma-grouped figure.
func FormatINR(amount float64) string {
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return "₹" + fmt.Sprint(amount)
	case amount >= crore:
		return fmt.Sprintf("₹%.2f Crore", amount/crore)
	case amount >= lakh:
		return fmt.Sprintf("₹%.2f Lakh", amount/lakh)
	}
	return "₹" + groupThousands(fmt.Sprintf("%.2f", amount))
}

// groupThousands inserts commas every three digits into the integer part of
// a decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + frac
}
