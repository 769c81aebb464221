package eval

// #region eval-config
// EvalConfig holds thresholds for corpus validation before training.
type EvalConfig struct {
	MinDecisionPoints int     // reject corpora smaller than this
	MaxNoneRatio      float64 // warn if the share of "none" labels exceeds this
}

// DefaultEvalConfig returns the thresholds used by the training driver.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinDecisionPoints: 1,
		MaxNoneRatio:      0.9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of corpus validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// Metric returns the named metric.
func (r EvalResult) Metric(name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

// #endregion eval-result
