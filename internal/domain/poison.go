package domain

import (
	"fmt"
	"strings"
)

// Strategy names a rule for corrupting the selected rows.
type Strategy string

const (
	StrategyRandom    Strategy = "random"
	StrategyGaussian  Strategy = "gaussian"
	StrategyLabelFlip Strategy = "label_flip"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyRandom, StrategyGaussian, StrategyLabelFlip}

// ParseStrategy normalizes s and reports whether it names a known strategy.
func ParseStrategy(s string) (Strategy, bool) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Strategies {
		if st == known {
			return st, true
		}
	}
	return st, false
}

// PoisonSpec selects a strategy and the fraction of rows it applies to.
type PoisonSpec struct {
	Strategy Strategy `validate:"required"`
	Fraction float64  `validate:"gte=0,lte=1"`
}

// Count returns floor(n * fraction), the number of rows to poison.
func (s PoisonSpec) Count(n int) int {
	return int(float64(n) * s.Fraction)
}

// Percent returns the fraction as a rounded integer percentage.
func (s PoisonSpec) Percent() int {
	return int(s.Fraction*100 + 0.5)
}

func (s PoisonSpec) String() string {
	return fmt.Sprintf("%dpct_%s", s.Percent(), s.Strategy)
}
