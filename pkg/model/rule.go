package model

// Rule names, in definition order
const (
	RuleStale        = "stale"
	RuleStationary   = "stationary"
	RuleOffRoute     = "off-route"
	RuleSpeedAnomaly = "speed-anomaly"
	RuleRecurring    = "recurring-pattern"
)

// RuleResult records the outcome of one heuristic during a scoring pass
type RuleResult struct {
	Rule         string `groups:"basic"`
	Fired        bool   `groups:"basic"`
	Contribution int    `groups:"basic"`
}
