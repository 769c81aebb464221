package eval

import (
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/model"
)

var knownLabels = map[string]bool{
	model.LabelColor: true,
	model.LabelSize:  true,
	model.LabelDim:   true,
	model.LabelNone:  true,
}

// #region eval-harness
// EvalHarness validates an assembled corpus before it is handed to the model.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks that x and y pair up one to one, that every input vector has the
// same width and that every label is known. The none ratio is reported but
// never fails the corpus.
func (h *EvalHarness) Run(x []model.Vector, y []string) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	// 1. X and Y must pair up exactly
	lengthPass := len(x) == len(y)
	metrics = append(metrics, EvalMetric{
		Name:  "length_diff",
		Value: float64(len(x) - len(y)),
		Pass:  lengthPass,
	})
	if !lengthPass {
		failReasons = append(failReasons, fmt.Sprintf("%d inputs but %d labels", len(x), len(y)))
	}

	// 2. Corpus size
	sizePass := len(x) >= h.config.MinDecisionPoints
	metrics = append(metrics, EvalMetric{
		Name:  "decision_points",
		Value: float64(len(x)),
		Pass:  sizePass,
	})
	if !sizePass {
		failReasons = append(failReasons, fmt.Sprintf("%d decision points, need %d", len(x), h.config.MinDecisionPoints))
	}

	// 3. Vector width
	width, widthPass := uniformWidth(x)
	metrics = append(metrics, EvalMetric{
		Name:  "vector_width",
		Value: float64(width),
		Pass:  widthPass,
	})
	if !widthPass {
		failReasons = append(failReasons, "input vectors differ in width")
	}

	// 4. Label vocabulary
	unknown, none := 0, 0
	for _, l := range y {
		if !knownLabels[l] {
			unknown++
		}
		if l == model.LabelNone {
			none++
		}
	}
	metrics = append(metrics, EvalMetric{
		Name:  "unknown_labels",
		Value: float64(unknown),
		Pass:  unknown == 0,
	})
	if unknown > 0 {
		failReasons = append(failReasons, fmt.Sprintf("%d unknown labels", unknown))
	}

	// 5. None ratio: informational only
	ratio := 0.0
	if len(y) > 0 {
		ratio = float64(none) / float64(len(y))
	}
	metrics = append(metrics, EvalMetric{
		Name:  "none_ratio",
		Value: ratio,
		Pass:  ratio <= h.config.MaxNoneRatio,
	})

	reason := "all checks passed"
	passed := len(failReasons) == 0
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
// uniformWidth returns the width of the first vector and whether all match it.
func uniformWidth(x []model.Vector) (int, bool) {
	if len(x) == 0 {
		return 0, true
	}
	w := len(x[0])
	for _, v := range x[1:] {
		if len(v) != w {
			return w, false
		}
	}
	return w, true
}

// #endregion helpers
