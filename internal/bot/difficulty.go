package bot

import "fmt"

// Difficulty controls how carefully the opponent plays.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

// ParseDifficulty maps a request string to a Difficulty. Empty means Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case "":
		return Medium, nil
	case Easy, Medium, Hard, Expert:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) rank() int {
	switch d {
	case Easy:
		return 0
	case Hard:
		return 2
	case Expert:
		return 3
	}
	return 1
}

// AtLeast reports whether d is as hard as other.
func (d Difficulty) AtLeast(other Difficulty) bool {
	return d.rank() >= other.rank()
}

// FundraisingThreshold is the treasury level below which the bot only raises money.
func (d Difficulty) FundraisingThreshold() float64 {
	switch d {
	case Easy:
		return 5_000_000
	case Hard, Expert:
		return 2_000_000
	}
	return 3_000_000
}

// SafetyMargin scales action costs when checking affordability, so the bot
// keeps a reserve.
func (d Difficulty) SafetyMargin() float64 {
	switch d {
	case Easy:
		return 1.5
	case Hard:
		return 1.3
	case Expert:
		return 1.2
	}
	return 1.4
}

// MultiStateWidth is how many regions a multi-state push targets.
func (d Difficulty) MultiStateWidth() int {
	if d == Expert {
		return 3
	}
	return 2
}

// DefaultPersonality is the spy personality used when a game does not pick one.
func (d Difficulty) DefaultPersonality() Personality {
	switch d {
	case Easy:
		return Reckless
	case Hard:
		return Cautious
	case Expert:
		return Machiavellian
	}
	return Moralist
}
