// Package rules implements PayWatch's fraud risk rule engine.
//
// Architecture:
//   The engine is a pure function over an explicit signal subset of the
//   transaction — it performs no I/O and holds no mutable state, so a single
//   engine is safely shared across concurrent requests. Persisting the
//   verdict is the caller's responsibility.
//
// Scoring philosophy:
//   Each rule contributes a fixed non-negative weight to the total score.
//   Weights are additive; the total is clamped to [0, 1] — two rules firing
//   saturates, it does not average. The reason string reports the last rule
//   that fired in evaluation order; downstream consumers expect a single
//   reason, not a list.
package rules

import "strings"

// Signals is the minimal subset of transaction attributes the rules read.
// Nothing else on the record influences the verdict.
type Signals struct {
	Amount         float64
	OriginatingIP  string
	Region         string
	FailedAttempts int
}

// Verdict is the engine's output: fraud flag, normalized score, explanation.
type Verdict struct {
	IsFraud bool    `json:"is_fraud"`
	Score   float64 `json:"fraud_score"` // in [0,1]
	Reason  string  `json:"fraud_reason"`
}

// NoFraudReason is the explanation returned when no rule fires.
const NoFraudReason = "No fraud detected"

// Weights holds the score contribution of each rule.
type Weights struct {
	HighAmount     float64
	SuspiciousIP   float64
	BlockedRegion  float64
	FailedAttempts float64
}

// Config is the tunable fraud policy. Operators adjust thresholds and
// blocklists through configuration; retuning never requires a rebuild.
type Config struct {
	AmountThreshold        float64  // rule fires on amount strictly greater
	IPBlocklist            []string // exact match
	RegionBlocklist        []string // case-insensitive match
	FailedAttemptThreshold int      // rule fires on count >= threshold
	Weights                Weights
}

// DefaultConfig returns the stock fraud policy.
func DefaultConfig() Config {
	return Config{
		AmountThreshold:        100000,
		IPBlocklist:            []string{"192.168.1.1"},
		RegionBlocklist:        []string{"Pakistan"},
		FailedAttemptThreshold: 3,
		Weights: Weights{
			HighAmount:     0.8,
			SuspiciousIP:   0.6,
			BlockedRegion:  0.9,
			FailedAttempts: 0.7,
		},
	}
}

// rule is a single fraud signal: a predicate plus its weight and explanation.
type rule struct {
	reason string
	weight float64
	fires  func(Signals) bool
}

// Engine evaluates the configured rule set against transaction signals.
type Engine struct {
	rules []rule
}

// New creates an engine from the given policy. Blocklists are snapshotted
// into lookup sets at construction; the engine is read-only afterwards.
func New(cfg Config) *Engine {
	ips := make(map[string]bool, len(cfg.IPBlocklist))
	for _, ip := range cfg.IPBlocklist {
		ips[ip] = true
	}
	regions := make(map[string]bool, len(cfg.RegionBlocklist))
	for _, r := range cfg.RegionBlocklist {
		regions[strings.ToLower(r)] = true
	}

	return &Engine{
		rules: []rule{
			{
				reason: "High transaction amount",
				weight: cfg.Weights.HighAmount,
				fires: func(s Signals) bool {
					// Strictly greater: an amount exactly at the threshold passes.
					return s.Amount > cfg.AmountThreshold
				},
			},
			{
				reason: "Suspicious IP address",
				weight: cfg.Weights.SuspiciousIP,
				fires: func(s Signals) bool {
					return ips[s.OriginatingIP]
				},
			},
			{
				reason: "Transaction from blacklisted region",
				weight: cfg.Weights.BlockedRegion,
				fires: func(s Signals) bool {
					return regions[strings.ToLower(s.Region)]
				},
			},
			{
				reason: "Multiple failed attempts",
				weight: cfg.Weights.FailedAttempts,
				fires: func(s Signals) bool {
					return s.FailedAttempts >= cfg.FailedAttemptThreshold
				},
			},
		},
	}
}

// Evaluate runs every rule against the signals — no early exit — and
// returns the aggregated verdict. It never fails on well-typed input;
// validating malformed fields is the caller's job.
func (e *Engine) Evaluate(sig Signals) Verdict {
	v := Verdict{Reason: NoFraudReason}

	for _, r := range e.rules {
		if !r.fires(sig) {
			continue
		}
		v.IsFraud = true
		v.Score += r.weight
		v.Reason = r.reason // last firing rule wins
	}

	if v.Score > 1.0 {
		v.Score = 1.0
	}
	return v
}
