package models

import (
	"fmt"
	"strings"
)

// Strategy selects the scoring algorithm the analysis engine applies. The
// client passes it through without interpreting it.
type Strategy string

const (
	StrategySmartBalance   Strategy = "smart_balance"
	StrategyFastestWins    Strategy = "fastest_wins"
	StrategyHighImpact     Strategy = "high_impact"
	StrategyDeadlineDriven Strategy = "deadline_driven"
)

// DefaultStrategy is used when neither a flag nor the config names one.
const DefaultStrategy = StrategySmartBalance

// Strategies lists the strategies the analysis engine understands, in the
// order they are offered to the user.
var Strategies = []Strategy{
	StrategySmartBalance,
	StrategyFastestWins,
	StrategyHighImpact,
	StrategyDeadlineDriven,
}

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStrategy normalizes user input into a Strategy. An empty value yields
// DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultStrategy, nil
	}
	st := Strategy(strings.ReplaceAll(s, "-", "_"))
	if !st.Valid() {
		return "", fmt.Errorf("unknown strategy %q, must be one of: %s", s, strategyList())
	}
	return st, nil
}

// Next returns the strategy following s in Strategies, wrapping around.
func (s Strategy) Next() Strategy {
	for i, known := range Strategies {
		if s == known {
			return Strategies[(i+1)%len(Strategies)]
		}
	}
	return DefaultStrategy
}

func strategyList() string {
	names := make([]string, len(Strategies))
	for i, s := range Strategies {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
