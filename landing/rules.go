package landing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mohae/deepcopy"
)

// RiskFormula selects how the risk score is computed.
type RiskFormula string

const (
	// RiskByWeight scores floor(wind_speed + weight/100).
	RiskByWeight RiskFormula = "weight"
	// RiskByModel scores wind_speed plus a per-model bonus.
	RiskByModel RiskFormula = "model"
)

// Classification selects how the path type label is derived.
type Classification string

const (
	// ClassifyConfined always labels the path "Confined Area".
	ClassifyConfined Classification = "confined"
	// ClassifyPerformance labels the path PC1 or PC2.
	ClassifyPerformance Classification = "performance"
)

const (
	RuleSetConfinedArea     = "confined-area-v1"
	RuleSetPerformanceClass = "performance-class-v1"
)

const (
	PathConfinedArea = "Confined Area"
	PathPC1          = "PC1"
	PathPC2          = "PC2"
)

const (
	WarningHighWind      = "High wind speed: risky landing conditions."
	WarningHeavyAircraft = "Heavy aircraft: requires longer clearance zone."
)

// MinClearanceFt is the safety margin added above the tallest obstacle on
// the approach.
const MinClearanceFt = 120

// DefaultObstacles returns the max obstacle height per landing direction used
// when no site-specific table is known.
func DefaultObstacles() ObstacleTable {
	return ObstacleTable{
		North:     80,
		NorthEast: 75,
		East:      90,
		SouthEast: 100,
		South:     85,
		SouthWest: 70,
		West:      95,
		NorthWest: 60,
	}
}

// RuleSet is a named, versioned set of business rules. A RuleSet is treated
// as immutable once handed to an Engine; use WithObstacles to derive a
// variant.
type RuleSet struct {
	Name        string
	Description string

	Opposites         map[Compass]Compass
	FallbackDirection Compass

	Obstacles      ObstacleTable
	MinClearanceFt float64

	Risk       RiskFormula
	MaxRisk    int
	RiskModel  string
	ModelBonus float64
	OtherBonus float64

	HighWindKt float64
	HeavyKg    float64

	Classification Classification
	PC2MinRisk     int
}

// ConfinedAreaRules returns the default rule set: weight-weighted risk and a
// fixed "Confined Area" path type.
func ConfinedAreaRules() RuleSet {
	return RuleSet{
		Name:              RuleSetConfinedArea,
		Description:       "Opposite-of-wind approach, obstacle decision height, weight-weighted risk, confined area profile",
		Opposites:         copyOpposites(standardOpposites),
		FallbackDirection: North,
		Obstacles:         DefaultObstacles(),
		MinClearanceFt:    MinClearanceFt,
		Risk:              RiskByWeight,
		MaxRisk:           100,
		RiskModel:         "AW139",
		ModelBonus:        10,
		OtherBonus:        5,
		HighWindKt:        30,
		HeavyKg:           6000,
		PC2MinRisk:        50,
		Classification:    ClassifyConfined,
	}
}

// PerformanceClassRules returns the rule set that scores by aircraft model
// and labels the path PC1/PC2.
func PerformanceClassRules() RuleSet {
	rs := ConfinedAreaRules()
	rs.Name = RuleSetPerformanceClass
	rs.Description = "Opposite-of-wind approach, obstacle decision height, model-weighted risk, PC2 when heavy or risk >= 50"
	rs.Risk = RiskByModel
	rs.Classification = ClassifyPerformance
	return rs
}

// WithObstacles returns a copy of rs that uses table for decision heights.
func (rs RuleSet) WithObstacles(table ObstacleTable) RuleSet {
	cp := deepcopy.Copy(rs).(RuleSet)
	cp.Obstacles = table.Clone()
	return cp
}

// WithMinClearance returns a copy of rs with a different clearance margin.
func (rs RuleSet) WithMinClearance(ft float64) RuleSet {
	cp := deepcopy.Copy(rs).(RuleSet)
	cp.MinClearanceFt = ft
	return cp
}

// Validate checks that the rule set is internally consistent.
func (rs RuleSet) Validate() error {
	var problems []string
	if strings.TrimSpace(rs.Name) == "" {
		problems = append(problems, "name is required")
	}
	for _, c := range compassPoints {
		o, ok := rs.Opposites[c]
		if !ok || !o.Valid() {
			problems = append(problems, fmt.Sprintf("opposite of %s is not defined", c))
		}
	}
	if !rs.FallbackDirection.Valid() {
		problems = append(problems, "fallback direction must be a compass point")
	}
	for c, h := range rs.Obstacles {
		if !c.Valid() {
			problems = append(problems, fmt.Sprintf("obstacle direction %q is not a compass point", c))
		}
		if !Finite(h) || h < 0 {
			problems = append(problems, fmt.Sprintf("obstacle height for %s is not a non-negative number", c))
		}
	}
	if !Finite(rs.MinClearanceFt) || rs.MinClearanceFt < 0 {
		problems = append(problems, "min clearance is not a non-negative number")
	}
	if rs.MaxRisk <= 0 {
		problems = append(problems, "max risk must be positive")
	}
	switch rs.Risk {
	case RiskByWeight, RiskByModel:
	default:
		problems = append(problems, fmt.Sprintf("unknown risk formula %q", rs.Risk))
	}
	switch rs.Classification {
	case ClassifyConfined, ClassifyPerformance:
	default:
		problems = append(problems, fmt.Sprintf("unknown classification %q", rs.Classification))
	}
	if len(problems) > 0 {
		return fmt.Errorf("rule set %q: %s", rs.Name, strings.Join(problems, "; "))
	}
	return nil
}

func copyOpposites(m map[Compass]Compass) map[Compass]Compass {
	out := make(map[Compass]Compass, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Registry holds the rule sets available to adapters, keyed by name.
type Registry struct {
	sets        map[string]RuleSet
	defaultName string
}

// NewRegistry validates sets and returns a registry whose default is
// defaultName.
func NewRegistry(defaultName string, sets ...RuleSet) (*Registry, error) {
	r := &Registry{sets: make(map[string]RuleSet, len(sets)), defaultName: defaultName}
	for _, rs := range sets {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.sets[rs.Name]; dup {
			return nil, fmt.Errorf("duplicate rule set %q", rs.Name)
		}
		r.sets[rs.Name] = rs
	}
	if _, ok := r.sets[defaultName]; !ok {
		return nil, fmt.Errorf("default rule set %q is not registered", defaultName)
	}
	return r, nil
}

// DefaultRegistry registers the built-in rule sets with confined-area-v1 as
// the default.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(RuleSetConfinedArea, ConfinedAreaRules(), PerformanceClassRules())
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the named rule set. An empty name yields the default.
func (r *Registry) Get(name string) (RuleSet, bool) {
	if name == "" {
		name = r.defaultName
	}
	rs, ok := r.sets[name]
	return rs, ok
}

func (r *Registry) Default() RuleSet {
	return r.sets[r.defaultName]
}

func (r *Registry) DefaultName() string {
	return r.defaultName
}

// List returns all rule sets ordered by name.
func (r *Registry) List() []RuleSet {
	out := make([]RuleSet, 0, len(r.sets))
	for _, rs := range r.sets {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
