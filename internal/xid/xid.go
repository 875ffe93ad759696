package xid

import (
	"fmt"
	"strconv"
	"strings"
)

// Prefixes for the sequential identifiers of each table.
const (
	ProductPrefix   = "P"
	MovementPrefix  = "M"
	PromotionPrefix = "PR"
	SalePrefix      = "V"
	ReturnPrefix    = "DEV"
)

// Next returns prefix followed by one more than the highest numeric suffix
// among existing, zero padded to at least three digits. IDs that do not parse
// as prefix+digits are ignored.
func Next(prefix string, existing []string) string {
	highest := 0
	for _, id := range existing {
		n, ok := Parse(prefix, id)
		if ok && n > highest {
			highest = n
		}
	}
	return Format(prefix, highest+1)
}

func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

func Parse(prefix, id string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	digits := id[len(prefix):]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
