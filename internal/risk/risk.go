package risk

import "fmt"

// Level is the discrete classification of a risk score.
type Level string

const (
	LevelSafe       Level = "safe"
	LevelSuspicious Level = "suspicious"
	LevelScam       Level = "scam"
)

// Default thresholds, matching the shipped settings.
const (
	DefaultSuspiciousThreshold = 31
	DefaultScamThreshold       = 70
)

// DefaultDescription is the register description outside of any call.
const DefaultDescription = "System ready for protection"

// Thresholds are the runtime-tunable classification boundaries (0-100).
type Thresholds struct {
	Suspicious int `json:"suspicious" yaml:"suspicious"`
	Scam       int `json:"scam" yaml:"scam"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Suspicious: DefaultSuspiciousThreshold, Scam: DefaultScamThreshold}
}

// Validate enforces 0-100 bounds and suspicious < scam.
func (t Thresholds) Validate() error {
	if t.Suspicious < 0 || t.Suspicious > 100 || t.Scam < 0 || t.Scam > 100 {
		return fmt.Errorf("thresholds out of range: suspicious=%d scam=%d", t.Suspicious, t.Scam)
	}
	if t.Suspicious >= t.Scam {
		return fmt.Errorf("suspicious threshold (%d) must be below scam threshold (%d)", t.Suspicious, t.Scam)
	}
	return nil
}

// Classify buckets a score against the given thresholds.
func Classify(score int, t Thresholds) Level {
	switch {
	case score >= t.Scam:
		return LevelScam
	case score >= t.Suspicious:
		return LevelSuspicious
	default:
		return LevelSafe
	}
}

// Describe returns the user-facing description for a level.
func Describe(level Level) string {
	switch level {
	case LevelScam:
		return "HIGH RISK: Likely scam - take immediate action"
	case LevelSuspicious:
		return "CAUTION: Suspicious patterns detected"
	default:
		return "PROTECTED: No threats detected"
	}
}

// Current is the single authoritative risk register for a monitor session.
type Current struct {
	Score       int    `json:"score"`
	Level       Level  `json:"level"`
	Confidence  int    `json:"confidence"`
	Description string `json:"description"`
}

// Reset returns the register value outside of any call.
func Reset() Current {
	return Current{Score: 0, Level: LevelSafe, Confidence: 0, Description: DefaultDescription}
}
