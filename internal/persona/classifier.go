package persona

import (
	"errors"
	"sort"

	"github.com/dkurilov/persona-service/internal/models"
)

// ErrUnclassifiable is returned when no rule-set matches the bundle. Callers
// must surface the empty outcome rather than synthesize a default persona.
var ErrUnclassifiable = errors.New("no persona rule-set matched")

// Match is one rule-set match with its confidence and satisfied criteria.
type Match struct {
	Persona     models.PersonaType
	Confidence  float64
	CriteriaMet []string
}

// Result is a full classification: the primary persona plus all other
// matching rule-sets ordered by descending confidence.
type Result struct {
	Primary   Match
	Secondary []Match
}

// Classifier evaluates the fixed rule-set order against signal bundles.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier builds a classifier with the default thresholds.
func NewClassifier() *Classifier {
	return NewClassifierWithThresholds(DefaultThresholds())
}

// NewClassifierWithThresholds builds a classifier with custom cutoffs.
func NewClassifierWithThresholds(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify evaluates every rule-set in priority order. The first match is
// primary; the rest become secondaries sorted by confidence, with the
// priority order breaking ties so identical bundles always classify
// identically.
func (c *Classifier) Classify(b models.SignalBundle) (Result, error) {
	var matches []Match
	for _, r := range ruleSet {
		res := r.evaluate(b, c.thresholds)
		if !res.Match {
			continue
		}
		matches = append(matches, Match{
			Persona:     r.persona,
			Confidence:  res.Confidence,
			CriteriaMet: res.CriteriaMet,
		})
	}
	if len(matches) == 0 {
		return Result{}, ErrUnclassifiable
	}

	result := Result{Primary: matches[0]}
	if len(matches) > 1 {
		secondary := matches[1:]
		sort.SliceStable(secondary, func(i, j int) bool {
			return secondary[i].Confidence > secondary[j].Confidence
		})
		result.Secondary = secondary
	}
	return result, nil
}
