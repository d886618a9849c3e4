package venue

import (
	"fmt"
	"strconv"
	"strings"
)

// PriceTier is an ordinal price category: 1 ($) to 4 ($$$$). 0 means unknown.
type PriceTier int

// Price tier constants.
const (
	PriceUnknown   PriceTier = 0
	PriceCheap     PriceTier = 1
	PriceModerate  PriceTier = 2
	PriceExpensive PriceTier = 3
	PriceLuxury    PriceTier = 4

	MaxPriceTier = PriceLuxury
)

// IsValid reports whether the tier is within 0..4.
func (p PriceTier) IsValid() bool {
	return p >= PriceUnknown && p <= MaxPriceTier
}

// IsKnown reports whether a tier was assigned.
func (p PriceTier) IsKnown() bool { return p != PriceUnknown }

// String renders the tier as dollar signs, or "?" when unknown.
func (p PriceTier) String() string {
	if !p.IsKnown() || !p.IsValid() {
		return "?"
	}
	return strings.Repeat("$", int(p))
}

// ParsePriceTier accepts "$".."$$$$", "1".."4" or "" (unknown).
func ParsePriceTier(s string) (PriceTier, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "?" {
		return PriceUnknown, nil
	}
	if strings.Trim(s, "$") == "" {
		p := PriceTier(len(s))
		if !p.IsValid() {
			return PriceUnknown, fmt.Errorf("price tier %q out of range", s)
		}
		return p, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return PriceUnknown, fmt.Errorf("invalid price tier %q", s)
	}
	p := PriceTier(n)
	if !p.IsValid() {
		return PriceUnknown, fmt.Errorf("price tier %d out of range", n)
	}
	return p, nil
}
