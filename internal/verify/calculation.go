package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/registry"
)

// relativeTolerance bounds how far a claimed numeric result may drift from
// the evaluated template result.
const relativeTolerance = 0.01

// VerifyCalculation checks a claimed formula result against the known-good
// template registry. An unrecognized formula, missing variables, or an
// evaluator failure all resolve to Valid=true with Verified=false: no
// verification is never a failed verification.
func VerifyCalculation(formula string, vars map[string]float64, claimed float64) domain.CalculationCheck {
	template := matchTemplate(formula)
	if template == nil {
		return domain.CalculationCheck{Valid: true}
	}
	if !template.HasAllVariables(vars) {
		return domain.CalculationCheck{Valid: true}
	}

	calculated, err := evaluate(template, vars)
	if err != nil {
		return domain.CalculationCheck{Valid: true}
	}

	if resultsAgree(calculated, claimed) {
		return domain.CalculationCheck{Valid: true, Verified: true, CalculatedResult: calculated}
	}

	return domain.CalculationCheck{
		Valid:            false,
		Verified:         true,
		CalculatedResult: calculated,
		Error: fmt.Sprintf("calculation mismatch for %s: claimed %g but formula evaluates to %g",
			template.ID, claimed, calculated),
	}
}

// evaluate runs the template evaluator, absorbing panics from malformed
// registry entries so they surface as "not verifiable".
func evaluate(t *domain.FormulaTemplate, vars map[string]float64) (result float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formula evaluator panicked: %v", r)
		}
	}()
	result, err = t.Evaluate(vars)
	if err == nil && (math.IsNaN(result) || math.IsInf(result, 0)) {
		err = fmt.Errorf("formula produced a non-finite result")
	}
	return result, err
}

// resultsAgree applies the relative tolerance, additionally accepting an
// integral claim that the calculated value rounds to. Count-type answers
// (lamp counts, conductor counts) are conventionally rounded up, so 73 is a
// correct reading of 72.2.
func resultsAgree(calculated, claimed float64) bool {
	diff := math.Abs(calculated - claimed)
	scale := math.Max(math.Abs(calculated), math.Abs(claimed))
	if scale == 0 {
		return diff == 0
	}
	if diff/scale <= relativeTolerance {
		return true
	}
	if claimed == math.Trunc(claimed) && diff < 1 {
		return math.Ceil(calculated) == claimed || math.Round(calculated) == claimed
	}
	return false
}

// matchTemplate finds the template whose canonical pattern or alias matches
// the formula after normalization.
func matchTemplate(formula string) *domain.FormulaTemplate {
	normalized := normalizeFormula(formula)
	if normalized == "" {
		return nil
	}
	templates := registry.Formulas()
	for i := range templates {
		t := &templates[i]
		if normalizeFormula(t.CanonicalPattern) == normalized {
			return t
		}
		for _, alias := range t.Aliases {
			if normalizeFormula(alias) == normalized {
				return t
			}
		}
	}
	return nil
}

var multiplicationVariants = strings.NewReplacer(
	`\times`, "*",
	"×", "*",
	"⋅", "*",
	"·", "*",
)

// normalizeFormula collapses whitespace and unifies the interchangeable
// multiplication symbols so superficially different renderings of the same
// formula compare equal.
func normalizeFormula(formula string) string {
	s := multiplicationVariants.Replace(formula)

	// A lone x between terms is multiplication, not a variable.
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "x" || f == "X" {
			fields[i] = "*"
		}
	}
	s = strings.Join(fields, "")

	return strings.ToLower(s)
}
