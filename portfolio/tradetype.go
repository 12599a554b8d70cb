package portfolio

import (
	"fmt"
	"strings"
)

// TradeType is a bit mask of trade style tags. A single order may carry more
// than one tag (for example Intraday|Swing when a signal qualifies for both).
type TradeType uint8

const (
	TypeNone     TradeType = 0
	TypeIntraday TradeType = 1
	TypeSwing    TradeType = 2
	TypeLongTerm TradeType = 4
	TypeOptions  TradeType = 8
)

var tradeTypeNames = map[TradeType]string{
	TypeIntraday: "Intraday",
	TypeSwing:    "Swing",
	TypeLongTerm: "LongTerm",
	TypeOptions:  "Options",
}

// ParseTradeType resolves a single name, or a "|" separated list of names,
// into a TradeType mask. Matching is case-insensitive.
func ParseTradeType(s string) (TradeType, error) {
	var tt TradeType
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := TypeNone
		for flag, name := range tradeTypeNames {
			if strings.EqualFold(name, part) {
				found = flag
				break
			}
		}
		if found == TypeNone {
			return TypeNone, fmt.Errorf("%w: %q", ErrUnknownTradeType, part)
		}
		tt |= found
	}
	if tt == TypeNone {
		return TypeNone, fmt.Errorf("%w: %q", ErrUnknownTradeType, s)
	}
	return tt, nil
}

// ParseTradeTypes folds a configured allow-list into a single enable mask.
func ParseTradeTypes(names []string) (TradeType, error) {
	var mask TradeType
	for _, n := range names {
		tt, err := ParseTradeType(n)
		if err != nil {
			return TypeNone, err
		}
		mask |= tt
	}
	return mask, nil
}

// Matches reports whether any tag in tt overlaps the enabled mask.
func (tt TradeType) Matches(enabled TradeType) bool {
	return tt&enabled != 0
}

func (tt TradeType) String() string {
	if tt == TypeNone {
		return "None"
	}
	var parts []string
	for _, flag := range []TradeType{TypeIntraday, TypeSwing, TypeLongTerm, TypeOptions} {
		if tt&flag != 0 {
			parts = append(parts, tradeTypeNames[flag])
		}
	}
	return strings.Join(parts, "|")
}

// Side identifies the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide normalizes a side string.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}
