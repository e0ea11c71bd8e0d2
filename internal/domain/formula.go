package domain

// FormulaTemplate is a known-good formula the verifier can check answers
// against. Static and immutable after registry construction.
type FormulaTemplate struct {
	ID               string
	CanonicalPattern string
	Aliases          []string
	VariableNames    []string
	Evaluate         func(vars map[string]float64) (float64, error)
}

// HasAllVariables reports whether every required variable is present.
func (t *FormulaTemplate) HasAllVariables(vars map[string]float64) bool {
	for _, name := range t.VariableNames {
		if _, ok := vars[name]; !ok {
			return false
		}
	}
	return true
}
