package landing

import (
	"math"
	"strings"
)

// Engine applies a RuleSet to landing requests. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	rules RuleSet
}

// NewEngine returns an engine bound to rules.
func NewEngine(rules RuleSet) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the rule set the engine applies.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Evaluate validates req and, if it is well formed, returns its
// recommendation. Validation failures are reported as *ValidationError.
func (e *Engine) Evaluate(req LandingRequest) (LandingResponse, error) {
	if err := Validate(req); err != nil {
		return LandingResponse{}, err
	}
	return e.Recommend(req), nil
}

// Recommend computes the recommendation for req. It never fails: a wind
// direction outside the opposites table lands toward the rule set's fallback
// direction.
func (e *Engine) Recommend(req LandingRequest) LandingResponse {
	dir := e.LandingDirection(req.Weather.WindDirection)
	risk := e.RiskScore(req)
	return LandingResponse{
		PathType:       e.classify(req, risk),
		Direction:      dir,
		DecisionHeight: e.DecisionHeight(dir),
		RiskScore:      risk,
		Warnings:       e.Warnings(req),
	}
}

// LandingDirection returns the approach direction for a wind from wind.
func (e *Engine) LandingDirection(wind Compass) Compass {
	if dir, ok := e.rules.Opposites[wind]; ok {
		return dir
	}
	return e.rules.FallbackDirection
}

// DecisionHeight is the tallest obstacle on the approach from dir plus the
// minimum clearance.
func (e *Engine) DecisionHeight(dir Compass) float64 {
	return e.rules.Obstacles.Height(dir) + e.rules.MinClearanceFt
}

// RiskScore returns the risk score in [0, MaxRisk].
func (e *Engine) RiskScore(req LandingRequest) int {
	var raw float64
	switch e.rules.Risk {
	case RiskByModel:
		bonus := e.rules.OtherBonus
		if e.rules.RiskModel != "" && strings.Contains(req.Aircraft.Model, e.rules.RiskModel) {
			bonus = e.rules.ModelBonus
		}
		raw = req.Weather.WindSpeed + bonus
	default:
		raw = req.Weather.WindSpeed + req.Aircraft.Weight/100
	}

	if math.IsNaN(raw) || raw < 0 {
		return 0
	}
	if raw >= float64(e.rules.MaxRisk) {
		return e.rules.MaxRisk
	}
	return int(math.Floor(raw))
}

// Warnings returns the advisories for req in a fixed order. The result is
// never nil.
func (e *Engine) Warnings(req LandingRequest) []string {
	warnings := []string{}
	if req.Weather.WindSpeed > e.rules.HighWindKt {
		warnings = append(warnings, WarningHighWind)
	}
	if req.Aircraft.Weight > e.rules.HeavyKg {
		warnings = append(warnings, WarningHeavyAircraft)
	}
	return warnings
}

func (e *Engine) classify(req LandingRequest, risk int) string {
	switch e.rules.Classification {
	case ClassifyPerformance:
		if req.Aircraft.Weight > e.rules.HeavyKg || risk >= e.rules.PC2MinRisk {
			return PathPC2
		}
		return PathPC1
	default:
		return PathConfinedArea
	}
}
