// Package format renders numbers the way Indian sales dashboards show them:
// crore/lakh/thousand abbreviations and 2-digit digit grouping.
package format

import (
	"fmt"
	"math"
	"strings"
)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
)

// IndianCurrency abbreviates a rupee amount, e.g. ₹1.23 Cr, ₹4.50 L, ₹7.25 K, ₹12.00
func IndianCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= crore:
		return fmt.Sprintf("%s₹%.2f Cr", sign, v/crore)
	case v >= lakh:
		return fmt.Sprintf("%s₹%.2f L", sign, v/lakh)
	case v >= thousand:
		return fmt.Sprintf("%s₹%.2f K", sign, v/thousand)
	}
	return fmt.Sprintf("%s₹%.2f", sign, v)
}

// IndianGrouping formats with two decimals and Indian digit grouping, e.g. 12,34,567.00
func IndianGrouping(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.2f", math.Abs(v))
	intPart, decPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if len(intPart) <= 3 {
		b.WriteString(intPart)
	} else {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		// leading group may be one digit
		if len(head)%2 == 1 {
			groups = append(groups, head[:1])
			head = head[1:]
		}
		for i := 0; i < len(head); i += 2 {
			groups = append(groups, head[i:i+2])
		}
		b.WriteString(strings.Join(groups, ","))
		b.WriteByte(',')
		b.WriteString(tail)
	}
	b.WriteByte('.')
	b.WriteString(decPart)
	return b.String()
}

// Percent renders a share with one decimal place
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
