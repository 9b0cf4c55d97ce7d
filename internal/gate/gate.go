// File: internal/gate/gate.go
// The quality gate is the pass/fail decision over a critic assessment. It is
// a pure function of its inputs: no clock, no I/O, no hidden state.
package gate

import (
	"errors"
	"fmt"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

// ErrMalformedAssessment marks an assessment that is missing required
// dimensions or carries out-of-range scores. It escalates as an
// evaluation failure and never consumes a revision round.
var ErrMalformedAssessment = errors.New("malformed assessment")

// Verdict is the gate's decision on one assessment.
type Verdict struct {
	Passed       bool
	OverallScore float64
	// FloorBreaches lists safety dimensions that scored below the
	// configured floor. A non-empty list fails the verdict regardless of
	// the overall score.
	FloorBreaches []string
}

// Gate holds the gating policy: the dimension set, threshold, optional
// weights, and the optional safety floor.
type Gate struct {
	threshold   float64
	dimensions  []string
	weights     map[string]float64
	safetyFloor float64
	safetyDims  []string
}

// New creates a Gate from the review configuration. The configuration is
// assumed validated; see config.ReviewConfig.Validate.
func New(cfg config.ReviewConfig) *Gate {
	g := &Gate{
		threshold:   cfg.Threshold,
		dimensions:  append([]string(nil), cfg.Dimensions...),
		weights:     make(map[string]float64, len(cfg.Dimensions)),
		safetyFloor: cfg.SafetyFloor,
		safetyDims:  append([]string(nil), cfg.SafetyDimensions...),
	}
	for _, d := range cfg.Dimensions {
		g.weights[d] = 1.0
	}
	for d, w := range cfg.DimensionWeights {
		g.weights[d] = w
	}
	return g
}

// Validate checks that scores cover every required dimension, carry no
// unknown dimensions, and stay within [0,10]. All violations wrap
// ErrMalformedAssessment.
func (g *Gate) Validate(scores map[string]float64) error {
	for _, d := range g.dimensions {
		s, ok := scores[d]
		if !ok {
			return fmt.Errorf("%w: missing dimension %q", ErrMalformedAssessment, d)
		}
		if s < 0 || s > 10 {
			return fmt.Errorf("%w: dimension %q score %.2f out of range [0,10]",
				ErrMalformedAssessment, d, s)
		}
	}
	if len(scores) != len(g.dimensions) {
		for d := range scores {
			if _, ok := g.weights[d]; !ok {
				return fmt.Errorf("%w: unknown dimension %q", ErrMalformedAssessment, d)
			}
		}
	}
	return nil
}

// Overall computes the weighted mean of the dimension scores. With no
// weights configured this is the plain arithmetic mean.
func (g *Gate) Overall(scores map[string]float64) (float64, error) {
	if err := g.Validate(scores); err != nil {
		return 0, err
	}
	var sum, weight float64
	for _, d := range g.dimensions {
		w := g.weights[d]
		sum += w * scores[d]
		weight += w
	}
	return sum / weight, nil
}

// Build constructs a validated Assessment with its overall score derived
// from the dimension scores. This is the only way assessments enter the
// system; the critic must not trust any overall or pass value the model
// itself emitted. A failing assessment must carry feedback or suggestions,
// otherwise the revision round would regenerate blind.
func (g *Gate) Build(scores map[string]float64, feedback, suggestions string) (*schemas.Assessment, error) {
	overall, err := g.Overall(scores)
	if err != nil {
		return nil, err
	}
	if feedback == "" && suggestions == "" {
		v, err := g.Evaluate(&schemas.Assessment{DimensionScores: scores})
		if err != nil {
			return nil, err
		}
		if !v.Passed {
			return nil, fmt.Errorf("%w: failing assessment (overall %.1f) carries no feedback",
				ErrMalformedAssessment, overall)
		}
	}
	copied := make(map[string]float64, len(scores))
	for d, s := range scores {
		copied[d] = s
	}
	return &schemas.Assessment{
		DimensionScores: copied,
		OverallScore:    overall,
		Feedback:        feedback,
		Suggestions:     suggestions,
	}, nil
}

// Evaluate applies the gating policy to an assessment. The overall score is
// recomputed from the dimension scores rather than read from the struct, so
// the threshold decision cannot drift from the data it is based on. The
// safety floor is checked independently of the mean: a single breached
// safety dimension fails the verdict even when the average clears the
// threshold.
func (g *Gate) Evaluate(a *schemas.Assessment) (Verdict, error) {
	if a == nil {
		return Verdict{}, fmt.Errorf("%w: nil assessment", ErrMalformedAssessment)
	}
	overall, err := g.Overall(a.DimensionScores)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{OverallScore: overall}
	if g.safetyFloor > 0 {
		for _, d := range g.safetyDims {
			if a.DimensionScores[d] < g.safetyFloor {
				v.FloorBreaches = append(v.FloorBreaches, d)
			}
		}
	}
	v.Passed = overall >= g.threshold && len(v.FloorBreaches) == 0
	return v, nil
}

// Threshold exposes the configured pass threshold for logging and prompts.
func (g *Gate) Threshold() float64 { return g.threshold }

// Dimensions returns the required dimension set in configured order.
func (g *Gate) Dimensions() []string {
	return append([]string(nil), g.dimensions...)
}
